package sandbox

import (
	"github.com/HutchE92/handover/internal/domain/handover"
	"github.com/HutchE92/handover/internal/domain/outofhours"
	"github.com/HutchE92/handover/internal/domain/patient"
)

var firstNamesMale = []string{
	"James", "John", "Robert", "Michael", "David", "William", "Richard", "Thomas",
	"Christopher", "Daniel", "Matthew", "George", "Edward", "Harry", "Oliver", "Arthur",
}

var firstNamesFemale = []string{
	"Mary", "Patricia", "Jennifer", "Linda", "Elizabeth", "Barbara", "Susan", "Margaret",
	"Sarah", "Karen", "Emily", "Charlotte", "Olivia", "Sophie", "Grace", "Dorothy",
}

var lastNames = []string{
	"Smith", "Jones", "Williams", "Taylor", "Brown", "Davies", "Evans", "Wilson",
	"Thomas", "Johnson", "Roberts", "Robinson", "Thompson", "Wright", "Walker", "White",
	"Edwards", "Hughes", "Green", "Hall", "Lewis", "Harris", "Clarke", "Patel",
}

var consultants = []string{
	"Dr Ahmed", "Dr Bennett", "Dr Chowdhury", "Dr Fraser", "Dr Gallagher",
	"Dr Khan", "Dr Morrison", "Dr O'Neill", "Dr Shah", "Dr Whitfield",
}

var diagnoses = []string{
	"Community acquired pneumonia", "Exacerbation of COPD", "Urinary tract infection",
	"Congestive cardiac failure", "Cellulitis left leg", "Fractured neck of femur",
	"Acute kidney injury", "NSTEMI", "Upper GI bleed", "Small bowel obstruction",
	"Diabetic ketoacidosis", "Pulmonary embolism", "Fall with head injury",
	"Acute cholecystitis", "Delirium secondary to infection",
}

var allergies = []string{"NKDA", "NKDA", "NKDA", "Penicillin", "Codeine", "Latex", "Trimethoprim"}

var resusStatuses = []patient.ResuscitationStatus{
	patient.ResusFull, patient.ResusFull, patient.ResusFull,
	patient.ResusDNACPR, patient.ResusNotDiscussed,
}

var shiftTypes = []handover.ShiftType{handover.ShiftDay, handover.ShiftNight, handover.ShiftLongDay}

var nurseNames = []string{
	"Staff Nurse Adams", "Staff Nurse Baker", "Charge Nurse Cole", "Sister Doyle",
	"Staff Nurse Ellis", "Staff Nurse Foster", "Charge Nurse Grant",
}

var doctorNames = []string{"Dr Hill (FY1)", "Dr Iqbal (SHO)", "Dr Jenkins (SpR)", "Dr Kerr (SHO)"}

// situations take the patient's diagnosis.
var situations = []string{
	"Admitted with %s, stable overnight.",
	"%s, remains on IV antibiotics.",
	"Known %s, new oxygen requirement this shift.",
	"Treated for %s, mobilising with physio.",
}

var backgrounds = []string{
	"PMH: hypertension, type 2 diabetes.",
	"PMH: COPD, AF on apixaban.",
	"Lives alone, independent prior to admission.",
	"Nursing home resident, baseline confused.",
	"PMH: IHD, previous CABG.",
}

var assessments = []string{
	"Obs stable, eating and drinking.",
	"Tachycardic at 110, otherwise stable.",
	"Pain controlled with regular paracetamol.",
	"Urine output low, fluid balance positive.",
	"Confused overnight, settled with reassurance.",
}

var recommendations = []string{
	"Continue current plan, repeat bloods in the morning.",
	"Review antibiotics with microbiology results.",
	"Chase CT report, escalate if NEWS rises.",
	"OT assessment before discharge planning.",
	"Strict fluid balance, U&Es tomorrow.",
}

var specialties = []outofhours.Specialty{
	outofhours.SpecialtyMedicine, outofhours.SpecialtyTraumaOrtho, outofhours.SpecialtyGeneralSurgery,
}

var reviewReasons = []string{
	"Review bloods, potassium 5.9 this afternoon.",
	"Chase CT head report and act on findings.",
	"Re-site cannula, IV antibiotics due 02:00.",
	"Fluid review, poor urine output.",
	"Rising NEWS, please assess.",
	"Warfarin dose to prescribe once INR back.",
	"TTO to be written for morning discharge.",
	"Family request update on plan.",
}

var commentTexts = []string{
	"Seen, bloods repeated.",
	"Cannula re-sited.",
	"Discussed with SpR, plan documented.",
	"Will review after 2am round.",
}
