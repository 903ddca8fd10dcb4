package snapshot

// Kind identifies a trackable entity kind. The numeric values are persisted
// as the referrable_type column on audit and document rows, so they form a
// closed set: never renumber, only append.
type Kind int16

const (
	KindGeneralProfile   Kind = 1
	KindEmergencyContact Kind = 2
	KindSkill            Kind = 3
	KindBankAccount      Kind = 4
	KindPassport         Kind = 5
	KindI94              Kind = 6
	KindVisa             Kind = 7
	KindPersonalDocument Kind = 8
	KindDependent        Kind = 9
	KindVacation         Kind = 10
	KindAddress          Kind = 11
	KindEducation        Kind = 12
	KindCertification    Kind = 13
	KindProject          Kind = 14
	KindTimesheet        Kind = 15
	KindInvoice          Kind = 16
	KindClient           Kind = 17
	KindCompanyAsset     Kind = 18
	KindInsurancePolicy  Kind = 19
	KindWorkPermit       Kind = 20
	KindSignedDocument   Kind = 21
	KindPayrollProfile   Kind = 22
)

var kindNames = map[Kind]string{
	KindGeneralProfile:   "general profile",
	KindEmergencyContact: "emergency contact",
	KindSkill:            "skill",
	KindBankAccount:      "bank account",
	KindPassport:         "passport",
	KindI94:              "i94",
	KindVisa:             "visa",
	KindPersonalDocument: "personal document",
	KindDependent:        "dependent",
	KindVacation:         "vacation",
	KindAddress:          "address",
	KindEducation:        "education",
	KindCertification:    "certification",
	KindProject:          "project",
	KindTimesheet:        "timesheet",
	KindInvoice:          "invoice",
	KindClient:           "client",
	KindCompanyAsset:     "company asset",
	KindInsurancePolicy:  "insurance policy",
	KindWorkPermit:       "work permit",
	KindSignedDocument:   "signed document",
	KindPayrollProfile:   "payroll profile",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether k is a known entity kind.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}
