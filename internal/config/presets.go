package config

import "sort"

func with(fn func(c *Config)) *Config {
	c := DefaultConfig()
	fn(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"pendulum": {
		"swing": with(func(c *Config) {
			c.Simulation.InitialAngles = []float64{0.5}
			c.Simulation.Steps = 5000
		}),
		"hold": with(func(c *Config) {
			c.Controller.Type = "pid"
			c.Controller.Target = []float64{0.5}
			c.Simulation.Steps = 3000
		}),
		"spin": with(func(c *Config) {
			c.Gravity = [3]float64{}
			c.Simulation.Torques = []float64{1}
		}),
	},
	"double_pendulum": {
		"chaos": with(func(c *Config) {
			c.Robot = "double_pendulum"
			c.Simulation.InitialAngles = []float64{2.5, 2.5}
			c.Simulation.Dt = 0.0005
			c.Simulation.Steps = 10000
		}),
		"gentle": with(func(c *Config) {
			c.Robot = "double_pendulum"
			c.Simulation.InitialAngles = []float64{0.3, 0.3}
			c.Simulation.Steps = 5000
		}),
	},
	"cartpole": {
		"push": with(func(c *Config) {
			c.Robot = "cartpole"
			c.Simulation.InitialAngles = []float64{0, 1.4}
			c.Simulation.Torques = []float64{2, 0}
		}),
		"freefall": with(func(c *Config) {
			c.Robot = "cartpole"
			c.Simulation.InitialAngles = []float64{0, 1.5}
		}),
	},
	"four_bar": {
		"crank": with(func(c *Config) {
			c.Robot = "four_bar"
			c.PlanarAxis = []float64{0, 0, 1}
			c.Gravity = [3]float64{}
			c.Simulation.Torques = []float64{1, 0, 0, 0}
			c.Simulation.Integrator = "semi-implicit"
		}),
	},
}

func GetPreset(robotName, preset string) *Config {
	robotPresets, ok := Presets[robotName]
	if !ok {
		return nil
	}
	cfg, ok := robotPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(robotName string) []string {
	robotPresets, ok := Presets[robotName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(robotPresets))
	for name := range robotPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
