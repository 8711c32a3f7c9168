package runconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ecodyn/popmatrix/covariate"
	"github.com/ecodyn/popmatrix/lifecycle"
	"github.com/ecodyn/popmatrix/sensitivity"
	"github.com/ecodyn/popmatrix/simulate"
	"github.com/ecodyn/popmatrix/vitalrate"
)

var (
	// ErrBadConfig indicates a structurally invalid configuration file.
	ErrBadConfig = errors.New("runconfig: invalid configuration")

	// ErrUnknownTopology indicates a topology id outside the stock set.
	ErrUnknownTopology = errors.New("runconfig: unknown topology")

	// ErrUnknownLink indicates an unrecognized link name.
	ErrUnknownLink = errors.New("runconfig: unknown link")
)

// Coef mirrors vitalrate.Coefficients in YAML form.
type Coef struct {
	Intercept    float64            `yaml:"intercept"`
	Slopes       map[string]float64 `yaml:"slopes"`
	Interactions []InteractionSpec  `yaml:"interactions"`
	Classes      map[string]float64 `yaml:"classes"`
	Periods      map[int]float64    `yaml:"periods"`
	Trend        float64            `yaml:"trend"`
	RefYear      int                `yaml:"ref_year"`
}

// InteractionSpec is one pairwise product term in YAML form.
type InteractionSpec struct {
	A    string  `yaml:"a"`
	B    string  `yaml:"b"`
	Coef float64 `yaml:"coef"`
}

// Rate is the YAML form of one vital-rate model: a link name plus its
// coefficient set, and the link-specific parameters.
type Rate struct {
	Link      string  `yaml:"link"`
	Coef      `yaml:",inline"`
	Asymptote float64 `yaml:"asymptote"`
	Ceiling   float64 `yaml:"ceiling"`
	Hazards   []Coef  `yaml:"hazards"`
}

// Sensitivity is the YAML form of the engine options plus the grid used
// by the equilibrium search.
type Sensitivity struct {
	Tolerance   float64  `yaml:"tolerance"`
	Fraction    float64  `yaml:"fraction"`
	Workers     int      `yaml:"workers"`
	Covariation string   `yaml:"covariation"` // "hold-at-mean" | "paired"
	Resolution  int      `yaml:"resolution"`
	GridOver    []string `yaml:"grid_over"`
}

// Simulation is the YAML form of a stochastic projection run.
type Simulation struct {
	Years         int          `yaml:"years"`
	Start         []float64    `yaml:"start"`
	Seed          uint64       `yaml:"seed"`
	YearEffectStd float64      `yaml:"year_effect_std"`
	Immigration   *Immigration `yaml:"immigration"`
}

// Immigration is the YAML form of the additive immigration term.
type Immigration struct {
	Mean   float64 `yaml:"mean"`
	Std    float64 `yaml:"std"`
	Stage  int     `yaml:"stage"`
	Policy string  `yaml:"policy"` // "clamp" | "resample"
}

// InputSpec carries the fixed prediction selectors of the run.
type InputSpec struct {
	Class  string `yaml:"class"`
	Period *int   `yaml:"period"`
	Year   int    `yaml:"year"`
}

// Config is the full YAML run configuration.
type Config struct {
	Topology      string          `yaml:"topology"`
	CovariatesCSV string          `yaml:"covariates_csv"`
	Standardize   bool            `yaml:"standardize"`
	Detrend       bool            `yaml:"detrend"`
	Lag1          []string        `yaml:"lag1"`
	Rates         map[string]Rate `yaml:"rates"`
	Input         InputSpec       `yaml:"input"`
	Sensitivity   Sensitivity     `yaml:"sensitivity"`
	Simulation    *Simulation     `yaml:"simulation"`

	// dir is the config file's directory; relative CSV paths resolve
	// against it.
	dir string
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)

	return cfg, nil
}

// Parse decodes and validates a YAML configuration from memory.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	topo, err := topologyByID(c.Topology)
	if err != nil {
		return err
	}
	if c.CovariatesCSV == "" {
		return fmt.Errorf("%w: covariates_csv is required", ErrBadConfig)
	}
	for name, r := range c.Rates {
		if _, err := parseLink(r.Link); err != nil {
			return fmt.Errorf("rate %q: %w", name, err)
		}
	}
	for _, name := range topo.RateNames() {
		if _, ok := c.Rates[name]; !ok {
			return fmt.Errorf("%w: topology %q needs rate %q", ErrBadConfig, c.Topology, name)
		}
	}
	if s := c.Simulation; s != nil {
		if s.Years <= 0 {
			return fmt.Errorf("%w: simulation.years %d", ErrBadConfig, s.Years)
		}
		if len(s.Start) != topo.Stages {
			return fmt.Errorf("%w: simulation.start has %d stages, topology %q has %d",
				ErrBadConfig, len(s.Start), c.Topology, topo.Stages)
		}
		if im := s.Immigration; im != nil {
			if _, err := parsePolicy(im.Policy); err != nil {
				return err
			}
		}
	}
	if _, err := parseCovariation(c.Sensitivity.Covariation); err != nil {
		return err
	}

	return nil
}

// Run is the live result of Build: everything an analysis needs.
type Run struct {
	Models   map[string]*vitalrate.Model
	Topology lifecycle.Topology
	Series   *covariate.Series
	Input    vitalrate.Input
	Options  sensitivity.Options
}

// Build loads the covariate series and constructs the vital-rate models.
func (c *Config) Build() (*Run, error) {
	topo, err := topologyByID(c.Topology)
	if err != nil {
		return nil, err
	}

	models := make(map[string]*vitalrate.Model, len(c.Rates))
	for name, r := range c.Rates {
		m, err := r.model(name)
		if err != nil {
			return nil, err
		}
		models[name] = m
	}

	series, err := c.loadSeries()
	if err != nil {
		return nil, err
	}

	return &Run{
		Models:   models,
		Topology: topo,
		Series:   series,
		Input:    c.Input.input(),
		Options:  c.Sensitivity.options(),
	}, nil
}

// SimulateConfig assembles the projection setup from the simulation
// block. Call only when Simulation is present.
func (c *Config) SimulateConfig(run *Run) (simulate.Config, error) {
	s := c.Simulation
	if s == nil {
		return simulate.Config{}, fmt.Errorf("%w: no simulation block", ErrBadConfig)
	}
	cfg := simulate.Config{
		Models:        run.Models,
		Topology:      run.Topology,
		Input:         run.Input,
		YearEffectStd: s.YearEffectStd,
	}
	if im := s.Immigration; im != nil {
		policy, err := parsePolicy(im.Policy)
		if err != nil {
			return simulate.Config{}, err
		}
		cfg.Immigration = &simulate.Immigration{
			Mean: im.Mean, Std: im.Std, Stage: im.Stage, Policy: policy,
		}
	}

	return cfg, nil
}

func (c *Config) loadSeries() (*covariate.Series, error) {
	path := c.CovariatesCSV
	if c.dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(c.dir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	defer f.Close()

	samples, names, err := covariate.ReadCSV(f)
	if err != nil {
		return nil, err
	}

	return covariate.NewSeries(names, samples, covariate.SeriesOptions{
		Detrend:     c.Detrend,
		Standardize: c.Standardize,
		Lag1:        c.Lag1,
	})
}

func (r *Rate) model(name string) (*vitalrate.Model, error) {
	link, err := parseLink(r.Link)
	if err != nil {
		return nil, fmt.Errorf("rate %q: %w", name, err)
	}
	m := &vitalrate.Model{
		Name:      name,
		Link:      link,
		Coef:      r.Coef.coefficients(),
		Asymptote: r.Asymptote,
		Ceiling:   r.Ceiling,
	}
	for _, h := range r.Hazards {
		m.Hazards = append(m.Hazards, h.coefficients())
	}

	return m, nil
}

func (c *Coef) coefficients() vitalrate.Coefficients {
	out := vitalrate.Coefficients{
		Intercept:     c.Intercept,
		Slopes:        c.Slopes,
		ClassOffsets:  c.Classes,
		PeriodOffsets: c.Periods,
		Trend:         c.Trend,
		RefYear:       c.RefYear,
	}
	for _, it := range c.Interactions {
		out.Interactions = append(out.Interactions,
			vitalrate.Interaction{A: it.A, B: it.B, Coef: it.Coef})
	}

	return out
}

func (i *InputSpec) input() vitalrate.Input {
	in := vitalrate.Input{Class: i.Class, Year: i.Year}
	if i.Period != nil {
		in.Period = *i.Period
		in.UsePeriod = true
	}

	return in
}

func (s *Sensitivity) options() sensitivity.Options {
	opts := sensitivity.DefaultOptions()
	if s.Tolerance > 0 {
		opts.Tolerance = s.Tolerance
	}
	if s.Fraction != 0 {
		opts.Fraction = s.Fraction
	}
	if s.Workers > 0 {
		opts.Workers = s.Workers
	}
	mode, _ := parseCovariation(s.Covariation)
	opts.Covariation = mode

	return opts
}

// GridResolution returns the equilibrium-grid resolution, defaulting to
// a moderate 13 points per axis.
func (s *Sensitivity) GridResolution() int {
	if s.Resolution >= 2 {
		return s.Resolution
	}

	return 13
}

func topologyByID(id string) (lifecycle.Topology, error) {
	switch id {
	case "age-structured-female":
		return lifecycle.AgeStructuredFemale(), nil
	case "two-sex-juvenile-adult":
		return lifecycle.TwoSexJuvenileAdult(), nil
	case "three-stage-breeder":
		return lifecycle.ThreeStageBreeder(), nil
	default:
		return lifecycle.Topology{}, fmt.Errorf("%w: %q", ErrUnknownTopology, id)
	}
}

func parseLink(name string) (vitalrate.Link, error) {
	switch name {
	case "logit":
		return vitalrate.Logit, nil
	case "log":
		return vitalrate.Log, nil
	case "bounded-logit":
		return vitalrate.BoundedLogit, nil
	case "hazard-sum":
		return vitalrate.HazardSum, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownLink, name)
	}
}

func parseCovariation(name string) (sensitivity.Covariation, error) {
	switch name {
	case "", "hold-at-mean":
		return sensitivity.HoldAtMean, nil
	case "paired":
		return sensitivity.Paired, nil
	default:
		return 0, fmt.Errorf("%w: covariation %q", ErrBadConfig, name)
	}
}

func parsePolicy(name string) (simulate.TruncationPolicy, error) {
	switch name {
	case "", "clamp":
		return simulate.ClampZero, nil
	case "resample":
		return simulate.Resample, nil
	default:
		return 0, fmt.Errorf("%w: truncation policy %q", ErrBadConfig, name)
	}
}
