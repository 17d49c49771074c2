package sweep

import (
	"time"

	"github.com/vk/dmsweep/internal/config"
)

// Skip is one combination that was skipped by a recoverable failure.
type Skip struct {
	ScatteringType string                `yaml:"scattering_type" json:"scattering_type"`
	FilenameTail   string                `yaml:"filename_tail" json:"filename_tail"`
	Point          config.ParameterPoint `yaml:"point" json:"point"`
	ExperName      string                `yaml:"exper_name" json:"exper_name"`
	Quenching      config.QuenchingValue `yaml:"quenching" json:"quenching"`
	Reason         string                `yaml:"reason" json:"reason"`
	Error          string                `yaml:"error" json:"error"`
}

// Report summarises a run.
type Report struct {
	RunID string `yaml:"run_id" json:"run_id"`
	Mode  string `yaml:"mode" json:"mode"`

	// Invocations counts every engine call, successful or not.
	Invocations int `yaml:"invocations" json:"invocations"`
	// Calls and MultiCalls count successful calls per entry point.
	Calls      int `yaml:"calls" json:"calls"`
	MultiCalls int `yaml:"multi_calls" json:"multi_calls"`

	Skips     []Skip   `yaml:"skips,omitempty" json:"skips,omitempty"`
	PlotFiles []string `yaml:"plot_files,omitempty" json:"plot_files,omitempty"`

	Started  time.Time `yaml:"started" json:"started"`
	Finished time.Time `yaml:"finished" json:"finished"`
}

func (r *Report) addSkip(it config.Iteration, reason string, err error) {
	s := Skip{
		ScatteringType: it.ScatteringType,
		FilenameTail:   it.FilenameTail,
		Point:          it.Point,
		ExperName:      it.ExperName,
		Quenching:      it.Quenching,
		Reason:         reason,
	}
	if err != nil {
		s.Error = err.Error()
	}
	r.Skips = append(r.Skips, s)
}
