// internal/scoring/profile.go
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "single"
	MaritalMarried  MaritalStatus = "married"
	MaritalDivorced MaritalStatus = "divorced"
	MaritalWidowed  MaritalStatus = "widowed"
)

type ClientType string

const (
	ClientIndividual ClientType = "individual"
	ClientBusiness   ClientType = "business"
)

type IncomeSource string

const (
	IncomeEmployment   IncomeSource = "employment"
	IncomeBusiness     IncomeSource = "business"
	IncomeSelfEmployed IncomeSource = "self_employed"
	IncomeOther        IncomeSource = "other"
)

type LoanType string

const (
	LoanHome         LoanType = "home"
	LoanEducation    LoanType = "education"
	LoanBusiness     LoanType = "business"
	LoanAgricultural LoanType = "agricultural"
	LoanVehicle      LoanType = "vehicle"
	LoanPersonal     LoanType = "personal"
	LoanEmergency    LoanType = "emergency"
)

type RepaymentHistory string

const (
	RepaymentNone      RepaymentHistory = "none"
	RepaymentExcellent RepaymentHistory = "excellent"
	RepaymentGood      RepaymentHistory = "good"
	RepaymentFair      RepaymentHistory = "fair"
	RepaymentPoor      RepaymentHistory = "poor"
	RepaymentDefault   RepaymentHistory = "default"
)

type EducationLevel string

const (
	EducationPhD       EducationLevel = "phd"
	EducationMasters   EducationLevel = "masters"
	EducationDegree    EducationLevel = "degree"
	EducationDiploma   EducationLevel = "diploma"
	EducationSecondary EducationLevel = "secondary"
	EducationPrimary   EducationLevel = "primary"
)

type CollateralType string

const (
	CollateralProperty  CollateralType = "property"
	CollateralSavings   CollateralType = "savings"
	CollateralVehicle   CollateralType = "vehicle"
	CollateralEquipment CollateralType = "equipment"
	CollateralOther     CollateralType = "other"
)

// BusinessProfile describes the applicant's business when one exists.
type BusinessProfile struct {
	Name               string  `json:"name"`
	Type               string  `json:"type"`
	RegistrationNumber string  `json:"registrationNumber"`
	Location           string  `json:"location"`
	StartDate          string  `json:"startDate"`
	MonthlyRevenue     float64 `json:"monthlyRevenue" validate:"gte=0"`
	MonthlyExpenses    float64 `json:"monthlyExpenses" validate:"gte=0"`
	NetProfit          float64 `json:"netProfit"`
	EmployeeCount      int     `json:"employeeCount" validate:"gte=0"`
	HasBankStatements  bool    `json:"hasBankStatements"`
	HasTaxReturns      bool    `json:"hasTaxReturns"`
}

func (b *BusinessProfile) IsRegistered() bool {
	return b != nil && strings.TrimSpace(b.RegistrationNumber) != ""
}

// ApplicantProfile is the input to a single scoring call. It is never
// modified by the engine.
type ApplicantProfile struct {
	// Demographics
	Age           int           `json:"age" validate:"gte=0,lte=120"`
	Gender        Gender        `json:"gender" validate:"omitempty,oneof=male female other"`
	MaritalStatus MaritalStatus `json:"maritalStatus" validate:"omitempty,oneof=single married divorced widowed"`
	Dependents    int           `json:"dependents" validate:"gte=0"`
	ClientType    ClientType    `json:"clientType" validate:"omitempty,oneof=individual business"`

	// Income
	IncomeSource    IncomeSource     `json:"incomeSource" validate:"required,oneof=employment business self_employed other"`
	MonthlyIncome   float64          `json:"monthlyIncome" validate:"gte=0"`
	IncomeStability int              `json:"incomeStability" validate:"gte=1,lte=10"`
	YearsEmployed   float64          `json:"yearsEmployed" validate:"gte=0"`
	YearsInBusiness float64          `json:"yearsInBusiness" validate:"gte=0"`
	Business        *BusinessProfile `json:"businessProfile,omitempty"`

	// Financials
	RequestedAmount float64 `json:"requestedAmount" validate:"gt=0"`
	ExistingLoans   float64 `json:"existingLoans" validate:"gte=0"`
	MonthlyExpenses float64 `json:"monthlyExpenses" validate:"gte=0"`
	Assets          float64 `json:"assets" validate:"gte=0"`
	Liabilities     float64 `json:"liabilities" validate:"gte=0"`

	// Loan
	LoanType                  LoanType `json:"loanType" validate:"required,oneof=home education business agricultural vehicle personal emergency"`
	LoanPurpose               string   `json:"loanPurpose"`
	RepaymentPeriodMonths     int      `json:"repaymentPeriodMonths" validate:"gte=0"`
	BusinessLoanForIndividual bool     `json:"isBusinessLoanForIndividual"`

	// Credit history
	PreviousLoans            int              `json:"previousLoans" validate:"gte=0"`
	PreviousLoanAmount       float64          `json:"previousLoanAmount" validate:"gte=0"`
	PreviousRepaymentHistory RepaymentHistory `json:"previousRepaymentHistory" validate:"omitempty,oneof=none excellent good fair poor default"`
	CreditBureauScore        *int             `json:"creditBureauScore,omitempty" validate:"omitempty,gte=0,lte=1000"`
	CreditBureauConsent      bool             `json:"creditBureauConsent"`

	// Collateral
	HasCollateral   bool           `json:"hasCollateral"`
	CollateralValue float64        `json:"collateralValue" validate:"gte=0"`
	CollateralType  CollateralType `json:"collateralType" validate:"omitempty,oneof=property savings vehicle equipment other"`

	// Guarantors
	HasGuarantors  bool `json:"hasGuarantors"`
	GuarantorCount int  `json:"guarantorCount" validate:"gte=0"`

	// Stability
	EducationLevel       EducationLevel `json:"educationLevel" validate:"omitempty,oneof=phd masters degree diploma secondary primary"`
	YearsAtResidence     float64        `json:"yearsAtResidence" validate:"gte=0"`
	YearsWithPhoneNumber float64        `json:"yearsWithPhoneNumber" validate:"gte=0"`
}

// HasPriorLoans reports whether the applicant has borrowed before.
func (p ApplicantProfile) HasPriorLoans() bool {
	return p.PreviousLoans > 0 || p.RepaymentKnown()
}

// RepaymentKnown reports whether a gradeable repayment history was supplied.
func (p ApplicantProfile) RepaymentKnown() bool {
	return p.PreviousRepaymentHistory != "" && p.PreviousRepaymentHistory != RepaymentNone
}

// AnnualIncome is monthly income times twelve.
func (p ApplicantProfile) AnnualIncome() float64 {
	return p.MonthlyIncome * 12
}

// DebtRatio is (existing loans + requested amount) over annual income. It
// is +Inf when there is no income.
func (p ApplicantProfile) DebtRatio() float64 {
	annual := p.AnnualIncome()
	if annual <= 0 {
		return math.Inf(1)
	}
	return (p.ExistingLoans + p.RequestedAmount) / annual
}

func (p ApplicantProfile) isBusinessIncome() bool {
	return p.IncomeSource == IncomeBusiness || p.IncomeSource == IncomeSelfEmployed
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func profileValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate rejects profiles carrying unknown enum values or out-of-range
// numbers. It is meant for the boundary where raw input becomes a profile.
func (p ApplicantProfile) Validate() error {
	err := profileValidator().Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate profile: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(msgs, "; "))
}
