/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/gobores/gobores/InputParameters"
	"github.com/gobores/gobores/linsolver"
	"github.com/gobores/gobores/pvt"
	"github.com/gobores/gobores/reservoir"
	"github.com/gobores/gobores/simulation"
	"github.com/gobores/gobores/types"
	"github.com/gobores/gobores/utils"
	"github.com/gobores/gobores/wells"
)

type RunModel struct {
	InputFile    string
	Profile      bool
	NProcs       int
	LogFrequency int
}

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a reservoir simulation from a YAML input file",
	Long:  `Run a reservoir simulation from a YAML input file; without one, a built-in depletion case runs`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		rm := &RunModel{}
		if rm.InputFile, err = cmd.Flags().GetString("inputFile"); err != nil {
			panic(err)
		}
		rm.Profile, _ = cmd.Flags().GetBool("profile")
		rm.NProcs, _ = cmd.Flags().GetInt("nprocs")
		rm.LogFrequency, _ = cmd.Flags().GetInt("logFrequency")
		ip := processRunInput(rm)
		Run(rm, ip)
	},
}

func processRunInput(rm *RunModel) (ip *InputParameters.InputParameters) {
	ip = InputParameters.NewInputParameters()
	if len(rm.InputFile) == 0 {
		fmt.Println("no input file supplied, running the built-in depletion case")
		return
	}
	data, err := ioutil.ReadFile(rm.InputFile)
	if err != nil {
		panic(err)
	}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	if err = ip.Validate(); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	return
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("inputFile", "I", "", "YAML file for input parameters like:\n\t- grid dimensions\n\t- timer controls\n\t- wells")
	RunCmd.Flags().BoolP("profile", "p", false, "write a CPU profile for the run")
	RunCmd.Flags().IntP("nprocs", "n", 0, "parallel degree for property evaluation, 0 = all CPUs")
	RunCmd.Flags().IntP("logFrequency", "l", 10, "accepted steps between progress lines")
}

func Run(rm *RunModel, ip *InputParameters.InputParameters) {
	if rm.Profile {
		defer profile.Start().Stop()
	}
	ip.Print()

	stream, err := BuildStream(rm, ip)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	final, err := stream.Run(ctx)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	printSummary(final)
}

// BuildStream assembles the model, scheme and driver from the input
// parameters.
func BuildStream(rm *RunModel, ip *InputParameters.InputParameters) (*simulation.Stream, error) {
	var (
		dims = types.Dims{Nx: ip.Nx, Ny: ip.Ny, Nz: ip.Nz}
		n    = dims.Cells()
	)
	thickness := reservoir.UniformGrid(dims, ip.Thickness)
	rock := reservoir.RockProperties{
		Porosity: reservoir.UniformGrid(dims, ip.Porosity),
		Permeability: reservoir.Permeability{
			X: reservoir.UniformGrid(dims, ip.PermX),
			Y: reservoir.UniformGrid(dims, ip.PermY),
			Z: reservoir.UniformGrid(dims, ip.PermZ),
		},
		Compressibility: ip.RockCompressibility,
	}
	fluid := reservoir.FluidProperties{
		Pressure:             reservoir.UniformGrid(dims, ip.InitialPressure),
		Temperature:          ip.Temperature,
		WaterSaturation:      reservoir.UniformGrid(dims, ip.WaterSaturation),
		OilSaturation:        reservoir.UniformGrid(dims, ip.OilSaturation),
		GasSaturation:        reservoir.UniformGrid(dims, ip.GasSaturation),
		SolventConcentration: make([]float64, n),
	}
	model := reservoir.NewReservoirModel(dims, ip.CellSize, thickness, rock, fluid)
	if err := model.Validate(); err != nil {
		return nil, err
	}
	geom := reservoir.NewGeometry(model, reservoir.BoundarySet{})

	ws, schedule, err := buildWells(ip)
	if err != nil {
		return nil, err
	}

	cfg := simulation.SchemeConfig{
		Geometry:     geom,
		Evaluator:    pvt.DefaultBlackOil(),
		Controller:   wells.NewController(),
		Orchestrator: linsolver.DefaultOrchestrator(ip.SolverMaxIterations, ip.SolverTolerance),
		Partition:    utils.NewPartitionMap(rm.NProcs, n),
	}
	if ip.Aquifer != nil {
		cfg.Aquifer = &simulation.CarterTracyAquifer{
			InitialPressure:      ip.Aquifer.InitialPressure,
			Permeability:         ip.Aquifer.Permeability,
			Porosity:             ip.Aquifer.Porosity,
			Viscosity:            ip.Aquifer.Viscosity,
			TotalCompressibility: ip.Aquifer.TotalCompressibility,
			Radius:               ip.Aquifer.Radius,
			Thickness:            ip.Aquifer.Thickness,
			AngleFraction:        ip.Aquifer.AngleFraction,
			ConstantInflux:       ip.Aquifer.ConstantInflux,
		}
	}
	if ip.Miscibility != nil {
		cfg.Miscibility = &simulation.ToddLongstaff{
			Omega:                      ip.Miscibility.Omega,
			MinimumMiscibilityPressure: ip.Miscibility.MMP,
			SolventViscosity:           ip.Miscibility.SolventViscosity,
			DissolutionCap:             ip.Miscibility.DissolutionCap,
		}
	}

	scheme, err := simulation.NewScheme(schemeKind(ip.Scheme), cfg)
	if err != nil {
		return nil, err
	}

	timer := simulation.NewTimer(
		types.Days(ip.InitialStepDays),
		types.Days(ip.MinStepDays),
		types.Days(ip.MaxStepDays),
		types.Days(ip.SimulationDays),
	)
	timer.MaxCFLNumber = ip.MaxCFL
	timer.RampUpFactor = ip.RampUpFactor
	timer.BackoffFactor = ip.BackoffFactor
	timer.AggressiveBackoffFactor = ip.AggressiveBackoffFactor
	timer.MaxRejects = ip.MaxRejects

	policy := simulation.DefaultAcceptancePolicy()
	policy.MaxPressureChange = ip.MaxPressureChange
	if ip.MaxSaturationChange > 0 {
		for _, phase := range types.Phases {
			policy.MaxSaturationChange[phase] = ip.MaxSaturationChange
		}
	}

	driver := &simulation.Driver{
		Timer:        timer,
		Scheme:       scheme,
		Policy:       policy,
		Schedule:     schedule,
		LogFrequency: rm.LogFrequency,
	}
	initial := simulation.ModelState{Model: model, Wells: ws}
	return simulation.NewStream(driver, initial)
}

func schemeKind(name string) simulation.SchemeKind {
	switch name {
	case "explicit":
		return simulation.Explicit
	case "implicit":
		return simulation.Implicit
	default:
		return simulation.IMPES
	}
}

func buildWells(ip *InputParameters.InputParameters) ([]wells.Well, *wells.Schedule, error) {
	if len(ip.Wells) == 0 && ip.Title == "depletion" {
		// Built-in case: one adaptive producer in the grid center.
		ip.Wells = []InputParameters.WellParameters{{
			Name: "P1", I: ip.Nx / 2, J: ip.Ny / 2, K2: ip.Nz - 1,
			Radius: 0.25, Control: "adaptive", TargetRate: -5000,
			TargetPhase: "oil", BHP: 500,
		}}
	}
	var (
		ws       []wells.Well
		schedule = wells.NewSchedule()
	)
	for _, wp := range ip.Wells {
		w := wells.Well{
			Name: wp.Name,
			Perforations: []wells.PerforationInterval{{
				Start: types.CellIndex{I: wp.I, J: wp.J, K: wp.K1},
				End:   types.CellIndex{I: wp.I, J: wp.J, K: wp.K2},
			}},
			Radius: wp.Radius,
			Skin:   wp.Skin,
			Active: wp.StartDay <= 0,
		}
		phase, err := parsePhase(wp.TargetPhase)
		if err != nil {
			return nil, nil, fmt.Errorf("well %s: %w", wp.Name, err)
		}
		if wp.Injector {
			w.Injected = &wells.InjectedFluid{Name: wp.TargetPhase, Phase: phase}
			switch wp.Control {
			case "bhp":
				w.Control = wells.BHPControl{TargetBHP: wp.BHP}
			case "rate":
				w.Control = wells.ConstantRateControl{TargetRate: wp.TargetRate, Phase: phase, BHPLimit: wp.BHP}
			default:
				w.Control = wells.AdaptiveBHPRateControl{
					TargetRate: wp.TargetRate, TargetPhase: phase,
					BHPLimit: wp.BHP, Clamp: wells.InjectionClamp{},
				}
			}
		} else {
			w.Produced = []wells.ProducedFluid{
				{Name: "water", Phase: types.Water},
				{Name: "oil", Phase: types.Oil},
				{Name: "gas", Phase: types.Gas},
			}
			switch wp.Control {
			case "bhp":
				w.Control = wells.BHPControl{TargetBHP: wp.BHP}
			case "rate":
				w.Control = wells.ConstantRateControl{TargetRate: wp.TargetRate, Phase: phase, BHPLimit: wp.BHP}
			default:
				w.Control = wells.AdaptiveBHPRateControl{
					TargetRate: wp.TargetRate, TargetPhase: phase,
					BHPLimit: wp.BHP, Clamp: wells.ProductionClamp{},
				}
			}
		}
		if wp.StartDay > 0 {
			schedule.Add(wells.Event{
				Well:     wp.Name,
				When:     wells.After(types.Days(wp.StartDay)),
				Activate: true,
			})
		}
		ws = append(ws, w)
	}
	return ws, schedule, nil
}

func parsePhase(name string) (types.Phase, error) {
	switch name {
	case "water":
		return types.Water, nil
	case "oil", "":
		return types.Oil, nil
	case "gas":
		return types.Gas, nil
	default:
		return types.Oil, fmt.Errorf("unknown phase %q", name)
	}
}

func printSummary(final simulation.ModelState) {
	fmt.Printf("finished at t = %.2f days after %d steps\n", final.Time.Days(), final.Step)
	for _, rep := range final.WellReports {
		status := "flowing"
		if rep.ShutIn {
			status = "shut in"
		}
		fmt.Printf("well %-8s %s  bhp %8.1f psi  qw %10.1f  qo %10.1f  qg %10.1f ft³/day\n",
			rep.Name, status, rep.BHP, rep.Water, rep.Oil, rep.Gas)
	}
	avg := final.Model.LayerAverages()
	nz, _ := avg.Dims()
	for k := 0; k < nz; k++ {
		fmt.Printf("layer %2d  p %8.1f psi  sw %.3f  so %.3f  sg %.3f\n",
			k, avg.At(k, 0), avg.At(k, 1), avg.At(k, 2), avg.At(k, 3))
	}
}
