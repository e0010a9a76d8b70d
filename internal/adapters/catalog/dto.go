package catalog

// File is the on-disk layout of a template catalog
type File struct {
	Version   int           `yaml:"version"`
	Templates []TemplateDTO `yaml:"templates"`
}

// TemplateDTO is one authored task template
type TemplateDTO struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Type        string `yaml:"type"`
	Description string `yaml:"description,omitempty"`

	Global bool       `yaml:"global,omitempty"`
	Target *TargetDTO `yaml:"target,omitempty"`

	Triggers   []TriggerDTO `yaml:"triggers,omitempty"`
	RequireAll bool         `yaml:"require_all,omitempty"`

	Rounds        int    `yaml:"rounds"`
	RealTimeLimit string `yaml:"real_time_limit,omitempty"`

	Impacts       []ImpactDTO       `yaml:"impacts,omitempty"`
	Messages      []MessageDTO      `yaml:"messages,omitempty"`
	Choices       []ChoiceDTO       `yaml:"choices,omitempty"`
	NumericInputs []NumericInputDTO `yaml:"numeric_inputs,omitempty"`

	DeliveryFailurePenalty int    `yaml:"delivery_failure_penalty,omitempty"`
	DeliveryTimeLimit      string `yaml:"delivery_time_limit,omitempty"`
}

// TargetDTO selects the facilities a non-global template binds to
type TargetDTO struct {
	FacilityType string `yaml:"facility_type,omitempty"`
	AutoSelect   bool   `yaml:"auto_select,omitempty"`
	FacilityID   string `yaml:"facility_id,omitempty"`
}

// TriggerDTO flattens every trigger kind; Kind decides which fields are read
type TriggerDTO struct {
	Kind string `yaml:"kind"`

	Target int  `yaml:"target,omitempty"`
	Exact  bool `yaml:"exact,omitempty"`

	FacilityType string `yaml:"facility_type,omitempty"`
	Cargo        string `yaml:"cargo,omitempty"`
	Condition    string `yaml:"condition,omitempty"`
	Threshold    int    `yaml:"threshold,omitempty"`

	Chance  float64 `yaml:"chance,omitempty"`
	Minimum int     `yaml:"minimum,omitempty"`

	SourceType      string `yaml:"source_type,omitempty"`
	DestinationType string `yaml:"destination_type,omitempty"`

	Comparison string `yaml:"comparison,omitempty"`
	Value      int    `yaml:"value,omitempty"`
}

type ImpactDTO struct {
	Type      string `yaml:"type"`
	Value     int    `yaml:"value"`
	Countdown bool   `yaml:"countdown,omitempty"`
	Label     string `yaml:"label,omitempty"`
}

type MessageDTO struct {
	Speaker string `yaml:"speaker"`
	Text    string `yaml:"text"`
}

type ChoiceDTO struct {
	ID       int          `yaml:"id"`
	Text     string       `yaml:"text"`
	Impacts  []ImpactDTO  `yaml:"impacts,omitempty"`
	Delivery *DeliveryDTO `yaml:"delivery,omitempty"`

	RepairVehicles int `yaml:"repair_vehicles,omitempty"`
}

type EndpointDTO struct {
	Strategy     string `yaml:"strategy"`
	FacilityType string `yaml:"facility_type,omitempty"`
	FacilityID   string `yaml:"facility_id,omitempty"`
	Name         string `yaml:"name,omitempty"`
}

type DeliveryDTO struct {
	Cargo         string      `yaml:"cargo"`
	QuantityMode  string      `yaml:"quantity_mode,omitempty"`
	Quantity      int         `yaml:"quantity,omitempty"`
	Percentage    int         `yaml:"percentage,omitempty"`
	Source        EndpointDTO `yaml:"source"`
	Destination   EndpointDTO `yaml:"destination"`
	Immediate     bool        `yaml:"immediate,omitempty"`
	MultiEndpoint bool        `yaml:"multi_endpoint,omitempty"`
	Priority      int         `yaml:"priority,omitempty"`
	IncludeTypes  []string    `yaml:"include_types,omitempty"`
	ExcludeTypes  []string    `yaml:"exclude_types,omitempty"`
	PreferTypes   []string    `yaml:"prefer_types,omitempty"`
}

type NumericInputDTO struct {
	ID      int    `yaml:"id"`
	Label   string `yaml:"label"`
	Current int    `yaml:"current,omitempty"`
	Min     int    `yaml:"min"`
	Max     int    `yaml:"max"`
	Step    int    `yaml:"step,omitempty"`
}
