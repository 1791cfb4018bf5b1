package forms

import "github.com/goliatone/go-riskintake/pkg/model"

// Clinician returns the 12-field clinical intake posted to the CAD model.
func Clinician() Definition {
	return Definition{
		ID:              "clinician",
		Role:            RoleClinician,
		Title:           "Clinician's Form",
		SubmitLabel:     "Predict CAD Risk",
		BusyLabel:       "Predicting...",
		Operation:       "predictClinician",
		Encoding:        CodesAsStrings,
		ShowProbability: true,
		Fields: []model.FieldSpec{
			model.Numeric("age", "Age", 0, 120),
			model.Categorical("sex", "Sex",
				model.Option{Code: "0", Label: "Female"},
				model.Option{Code: "1", Label: "Male"},
			),
			model.Categorical("chest_pain", "Chest Pain Type",
				model.Option{Code: "0", Label: "Typical Angina"},
				model.Option{Code: "1", Label: "Atypical Angina"},
				model.Option{Code: "2", Label: "Non-Anginal Pain"},
				model.Option{Code: "3", Label: "Asymptomatic"},
			),
			model.Numeric("resting_bp", "Resting Blood Pressure", 0, 300),
			model.Numeric("cholesterol", "Cholesterol", 0, 600),
			model.Categorical("fasting_bs", "Fasting Blood Sugar",
				model.Option{Code: "0", Label: "< 120 mg/dl"},
				model.Option{Code: "1", Label: "> 120 mg/dl"},
			),
			model.Categorical("resting_ecg", "Resting ECG",
				model.Option{Code: "0", Label: "Normal"},
				model.Option{Code: "1", Label: "ST-T Wave Abnormality"},
				model.Option{Code: "2", Label: "Left Ventricular Hypertrophy"},
			),
			model.Numeric("max_heart_rate", "Max Heart Rate", 0, 300),
			model.Categorical("exercise_angina", "Exercise Induced Angina",
				model.Option{Code: "0", Label: "No"},
				model.Option{Code: "1", Label: "Yes"},
			),
			model.Numeric("oldpeak", "Oldpeak ST", -10, 10).WithStep(0.1),
			model.Categorical("slope", "Slope of Peak Exercise ST",
				model.Option{Code: "0", Label: "Upsloping"},
				model.Option{Code: "1", Label: "Flat"},
				model.Option{Code: "2", Label: "Downsloping"},
			),
			model.Categorical("major_vessels", "Number of Major Vessels Colored",
				model.Option{Code: "0", Label: "0"},
				model.Option{Code: "1", Label: "1"},
				model.Option{Code: "2", Label: "2"},
				model.Option{Code: "3", Label: "3"},
			),
		},
	}
}
