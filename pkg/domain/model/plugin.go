package model

// ParameterType is the value type of a plugin parameter as understood by ChRIS
type ParameterType string

const (
	ParameterTypeString ParameterType = "str"
	ParameterTypeInt    ParameterType = "int"
	ParameterTypeBool   ParameterType = "bool"
	ParameterTypePath   ParameterType = "path"
)

// Parameter describes one plugin argument in the host's schema
type Parameter struct {
	Name      string        `json:"name"`
	Type      ParameterType `json:"type"`
	Optional  bool          `json:"optional"`
	Flag      string        `json:"flag"`
	ShortFlag string        `json:"short_flag"`
	Action    string        `json:"action"`
	Help      string        `json:"help"`
	Default   any           `json:"default,omitempty"`
	UIExposed bool          `json:"ui_exposed"`
}

// PluginDescriptor is the self-description a ChRIS plugin prints with --json
type PluginDescriptor struct {
	Type           string            `json:"type"`
	Parameters     []Parameter       `json:"parameters,omitempty"`
	Icon           string            `json:"icon"`
	Authors        string            `json:"authors"`
	Title          string            `json:"title"`
	Category       string            `json:"category"`
	Description    string            `json:"description"`
	Documentation  string            `json:"documentation"`
	License        string            `json:"license"`
	Version        string            `json:"version"`
	SelfPath       string            `json:"selfpath"`
	SelfExec       string            `json:"selfexec"`
	ExecShell      string            `json:"execshell"`
	MaxWorkers     int               `json:"max_number_of_workers"`
	MinWorkers     int               `json:"min_number_of_workers"`
	MaxMemoryLimit string            `json:"max_memory_limit"`
	MinMemoryLimit string            `json:"min_memory_limit"`
	MaxCPULimit    string            `json:"max_cpu_limit"`
	MinCPULimit    string            `json:"min_cpu_limit"`
	MaxGPULimit    int               `json:"max_gpu_limit"`
	MinGPULimit    int               `json:"min_gpu_limit"`
	OutputMeta     map[string]string `json:"output_meta,omitempty"`
}

// Meta returns a copy of the descriptor without the parameter schema
func (d PluginDescriptor) Meta() PluginDescriptor {
	d.Parameters = nil
	return d
}
