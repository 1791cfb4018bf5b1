package forms

import "github.com/goliatone/go-riskintake/pkg/model"

var yesNo = []model.Option{
	{Code: "0", Label: "No"},
	{Code: "1", Label: "Yes"},
}

var levels = []model.Option{
	{Code: "1", Label: "Normal"},
	{Code: "2", Label: "Above Normal"},
	{Code: "3", Label: "Well Above Normal"},
}

// Patient returns the 11-field lay intake posted to the cardiovascular model.
// Every categorical code is sent as an integer.
func Patient() Definition {
	return Definition{
		ID:          "patient",
		Role:        RolePatient,
		Title:       "Patient's Form",
		SubmitLabel: "Predict Cardiovascular Risk",
		BusyLabel:   "Predicting...",
		Operation:   "predictCardiovascular",
		Encoding:    CodesAsIntegers,
		Fields: []model.FieldSpec{
			model.Numeric("age", "Age", 0, 120).AsRequired(),
			model.Categorical("gender", "Gender",
				model.Option{Code: "1", Label: "Male"},
				model.Option{Code: "2", Label: "Female"},
			),
			model.Numeric("height", "Height (cm)", 50, 250).AsRequired(),
			model.Numeric("weight", "Weight (kg)", 10, 300).AsRequired(),
			model.Numeric("ap_hi", "Systolic Blood Pressure", 0, 300).AsRequired(),
			model.Numeric("ap_lo", "Diastolic Blood Pressure", 0, 200).AsRequired(),
			model.Categorical("cholesterol", "Cholesterol Level", levels...),
			model.Categorical("gluc", "Glucose Level", levels...),
			model.Categorical("smoke", "Smoking Status", yesNo...),
			model.Categorical("alco", "Alcohol Intake", yesNo...),
			model.Categorical("active", "Physical Activity", yesNo...),
		},
	}
}
