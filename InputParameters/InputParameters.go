package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type InputParameters struct {
	Title  string `yaml:"Title"`
	Scheme string `yaml:"Scheme"` // impes or explicit

	Nx        int        `yaml:"Nx"`
	Ny        int        `yaml:"Ny"`
	Nz        int        `yaml:"Nz"`
	CellSize  [2]float64 `yaml:"CellSize"`  // dx, dy in ft
	Thickness float64    `yaml:"Thickness"` // ft per layer

	PermX               float64 `yaml:"PermX"` // mD
	PermY               float64 `yaml:"PermY"`
	PermZ               float64 `yaml:"PermZ"`
	Porosity            float64 `yaml:"Porosity"`
	RockCompressibility float64 `yaml:"RockCompressibility"` // 1/psi

	InitialPressure float64 `yaml:"InitialPressure"` // psi
	Temperature     float64 `yaml:"Temperature"`     // degF
	WaterSaturation float64 `yaml:"WaterSaturation"`
	OilSaturation   float64 `yaml:"OilSaturation"`
	GasSaturation   float64 `yaml:"GasSaturation"`

	SimulationDays          float64 `yaml:"SimulationDays"`
	InitialStepDays         float64 `yaml:"InitialStepDays"`
	MinStepDays             float64 `yaml:"MinStepDays"`
	MaxStepDays             float64 `yaml:"MaxStepDays"`
	MaxCFL                  float64 `yaml:"MaxCFL"`
	RampUpFactor            float64 `yaml:"RampUpFactor"`
	BackoffFactor           float64 `yaml:"BackoffFactor"`
	AggressiveBackoffFactor float64 `yaml:"AggressiveBackoffFactor"`
	MaxRejects              int     `yaml:"MaxRejects"`

	MaxPressureChange   float64 `yaml:"MaxPressureChange"`   // psi per step
	MaxSaturationChange float64 `yaml:"MaxSaturationChange"` // per phase per step

	SolverTolerance     float64 `yaml:"SolverTolerance"`
	SolverMaxIterations int     `yaml:"SolverMaxIterations"`

	Wells []WellParameters `yaml:"Wells"`

	Aquifer     *AquiferParameters     `yaml:"Aquifer"`
	Miscibility *MiscibilityParameters `yaml:"Miscibility"`
}

// WellParameters describes one vertical well completed over layers K1..K2.
type WellParameters struct {
	Name        string  `yaml:"Name"`
	I           int     `yaml:"I"`
	J           int     `yaml:"J"`
	K1          int     `yaml:"K1"`
	K2          int     `yaml:"K2"`
	Radius      float64 `yaml:"Radius"` // ft
	Skin        float64 `yaml:"Skin"`
	Injector    bool    `yaml:"Injector"`
	Control     string  `yaml:"Control"` // rate, bhp, adaptive
	TargetRate  float64 `yaml:"TargetRate"` // ft³/day, negative produces
	TargetPhase string  `yaml:"TargetPhase"`
	BHP         float64 `yaml:"BHP"` // target or limit depending on Control
	StartDay    float64 `yaml:"StartDay"`
}

type AquiferParameters struct {
	InitialPressure      float64 `yaml:"InitialPressure"`
	Permeability         float64 `yaml:"Permeability"`
	Porosity             float64 `yaml:"Porosity"`
	Viscosity            float64 `yaml:"Viscosity"`
	TotalCompressibility float64 `yaml:"TotalCompressibility"`
	Radius               float64 `yaml:"Radius"`
	Thickness            float64 `yaml:"Thickness"`
	AngleFraction        float64 `yaml:"AngleFraction"`
	ConstantInflux       float64 `yaml:"ConstantInflux"`
}

type MiscibilityParameters struct {
	Omega            float64 `yaml:"Omega"`
	MMP              float64 `yaml:"MMP"`
	SolventViscosity float64 `yaml:"SolventViscosity"`
	DissolutionCap   float64 `yaml:"DissolutionCap"`
}

// NewInputParameters carries the defaults of a small depletion case;
// the input file overrides whatever it names.
func NewInputParameters() *InputParameters {
	return &InputParameters{
		Title:                   "depletion",
		Scheme:                  "impes",
		Nx:                      20,
		Ny:                      20,
		Nz:                      1,
		CellSize:                [2]float64{200, 200},
		Thickness:               50,
		PermX:                   100,
		PermY:                   100,
		PermZ:                   10,
		Porosity:                0.2,
		RockCompressibility:     4e-6,
		InitialPressure:         3000,
		Temperature:             150,
		WaterSaturation:         0.25,
		OilSaturation:           0.75,
		SimulationDays:          365,
		InitialStepDays:         1,
		MinStepDays:             0.01,
		MaxStepDays:             30,
		MaxCFL:                  0.9,
		RampUpFactor:            1.2,
		BackoffFactor:           0.5,
		AggressiveBackoffFactor: 0.25,
		MaxRejects:              20,
		MaxPressureChange:       200,
		MaxSaturationChange:     0.1,
		SolverTolerance:         1e-8,
		SolverMaxIterations:     500,
	}
}

func (ip *InputParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

// WithUpdates returns a copy with the given overrides applied. The
// receiver is never modified; wells and the aquifer/miscibility blocks
// are copied so the two configurations share nothing.
func (ip InputParameters) WithUpdates(apply func(*InputParameters)) InputParameters {
	next := ip
	next.Wells = append([]WellParameters(nil), ip.Wells...)
	if ip.Aquifer != nil {
		aq := *ip.Aquifer
		next.Aquifer = &aq
	}
	if ip.Miscibility != nil {
		mi := *ip.Miscibility
		next.Miscibility = &mi
	}
	if apply != nil {
		apply(&next)
	}
	return next
}

func (ip *InputParameters) Validate() error {
	if ip.Nx < 1 || ip.Ny < 1 || ip.Nz < 1 {
		return fmt.Errorf("grid dimensions %dx%dx%d must all be at least 1", ip.Nx, ip.Ny, ip.Nz)
	}
	if ip.CellSize[0] <= 0 || ip.CellSize[1] <= 0 || ip.Thickness <= 0 {
		return fmt.Errorf("cell size and thickness must be positive")
	}
	if ip.Porosity <= 0 || ip.Porosity >= 1 {
		return fmt.Errorf("porosity %g must be in (0, 1)", ip.Porosity)
	}
	switch ip.Scheme {
	case "impes", "explicit", "implicit":
	default:
		return fmt.Errorf("unknown scheme %q", ip.Scheme)
	}
	sum := ip.WaterSaturation + ip.OilSaturation + ip.GasSaturation
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("initial saturations sum to %g, want 1", sum)
	}
	for _, w := range ip.Wells {
		if w.Name == "" {
			return fmt.Errorf("well without a name")
		}
		switch w.Control {
		case "rate", "bhp", "adaptive":
		default:
			return fmt.Errorf("well %s: unknown control %q", w.Name, w.Control)
		}
	}
	return nil
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t\t= Scheme\n", ip.Scheme)
	fmt.Printf("[%d x %d x %d]\t\t= Grid\n", ip.Nx, ip.Ny, ip.Nz)
	fmt.Printf("%8.1f\t\t= InitialPressure (psi)\n", ip.InitialPressure)
	fmt.Printf("%8.1f\t\t= SimulationDays\n", ip.SimulationDays)
	fmt.Printf("%8.5f\t\t= MaxCFL\n", ip.MaxCFL)
	fmt.Printf("%8.2e\t\t= SolverTolerance\n", ip.SolverTolerance)
	for _, w := range ip.Wells {
		role := "producer"
		if w.Injector {
			role = "injector"
		}
		fmt.Printf("Well[%s] = %s %s at (%d,%d) k=%d..%d rate %.0f bhp %.0f\n",
			w.Name, role, w.Control, w.I, w.J, w.K1, w.K2, w.TargetRate, w.BHP)
	}
}
