package valueobjects

// PlanFeatures describes what a plan unlocks. Stored as JSON on the plan row.
type PlanFeatures struct {
	Features []string               `json:"features"`
	Limits   map[string]interface{} `json:"limits"`
}

func NewPlanFeatures(features []string, limits map[string]interface{}) *PlanFeatures {
	if features == nil {
		features = []string{}
	}
	if limits == nil {
		limits = make(map[string]interface{})
	}
	return &PlanFeatures{
		Features: features,
		Limits:   limits,
	}
}

func (p *PlanFeatures) HasFeature(feature string) bool {
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}

func (p *PlanFeatures) AddFeature(feature string) {
	if !p.HasFeature(feature) {
		p.Features = append(p.Features, feature)
	}
}

func (p *PlanFeatures) GetLimit(key string) (interface{}, bool) {
	if p.Limits == nil {
		return nil, false
	}
	value, exists := p.Limits[key]
	return value, exists
}
