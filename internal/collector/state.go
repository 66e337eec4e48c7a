package collector

// State is a step of the startup sequence.
type State int

const (
	StateValidating State = iota
	StateResolvingConfig
	StateDetectingProbes
	StatePopulatingRegistry
	StateConfiguringExport
	StateDone
)

var stateNames = map[State]string{
	StateValidating:         "validating",
	StateResolvingConfig:    "resolving_config",
	StateDetectingProbes:    "detecting_probes",
	StatePopulatingRegistry: "populating_registry",
	StateConfiguringExport:  "configuring_export",
	StateDone:               "done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return "unknown"
}
