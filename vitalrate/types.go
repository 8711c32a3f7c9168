package vitalrate

// Link selects the back-transformation from the linear-predictor scale
// to the rate's natural scale.
type Link int

const (
	// Logit maps the linear predictor to [0,1] (or [0,a] with an asymptote).
	Logit Link = iota

	// Log maps the linear predictor to a strictly positive rate.
	Log

	// BoundedLogit maps the linear predictor to [0,c] for a fixed ceiling c,
	// reducing to Logit when c = 1.
	BoundedLogit

	// HazardSum composes two or more log-link hazards acting on the same
	// stage over one interval into a survival probability exp(−Σ hazards).
	HazardSum
)

// String returns the canonical lowercase name of the link.
func (l Link) String() string {
	switch l {
	case Logit:
		return "logit"
	case Log:
		return "log"
	case BoundedLogit:
		return "bounded-logit"
	case HazardSum:
		return "hazard-sum"
	default:
		return "unknown"
	}
}

// Covariates is one covariate combination: covariate name → value.
// Values are on whatever scale the coefficients were fitted on
// (typically z-scored); the model does not rescale.
type Covariates map[string]float64

// Interaction is one pairwise product term: Coef·x_A·x_B.
type Interaction struct {
	A, B string
	Coef float64
}

// Coefficients is the immutable coefficient set for one vital rate's
// linear predictor. Distinct vital rates carry structurally different
// sets; absent maps simply contribute nothing.
type Coefficients struct {
	// Intercept is the linear-predictor value with all effects at zero.
	Intercept float64

	// Slopes holds one main-effect coefficient per covariate name.
	// A covariate present in the input but absent here is ignored;
	// a covariate named here but absent from the input is an error.
	Slopes map[string]float64

	// Interactions holds pairwise product terms.
	Interactions []Interaction

	// ClassOffsets holds additive offsets per categorical class label
	// (e.g. age class). Non-nil means the rate is class-structured and
	// a recognized class label is required at prediction time.
	ClassOffsets map[string]float64

	// PeriodOffsets holds additive offsets per discrete period level
	// (e.g. two harvest-pressure periods). Non-nil means a recognized
	// period is required at prediction time.
	PeriodOffsets map[int]float64

	// Trend is the coefficient on (year − RefYear); zero disables it.
	Trend   float64
	RefYear int
}

// Input carries the per-call selectors for Model.Predict. The zero
// value is valid for models without class structure, periods or trend.
type Input struct {
	// Class selects the categorical class offset. Required (and
	// validated) iff the coefficient set declares ClassOffsets.
	Class string

	// Period selects the discrete period offset; UsePeriod must be set
	// for it to apply. Required iff the set declares PeriodOffsets.
	Period    int
	UsePeriod bool

	// Year feeds the trend term as Trend·(Year − RefYear).
	Year int

	// RandomEffect is an additive term on the link scale (e.g. a year
	// effect); defaults to zero.
	RandomEffect float64
}
