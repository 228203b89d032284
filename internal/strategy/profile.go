package strategy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RiskProfile selects one of the three fixed threshold sets. The set is
// closed: parsing anything else is an error, so an unknown profile can
// never reach the signal generator.
type RiskProfile int

const (
	ProfileConservative RiskProfile = iota
	ProfileModerate
	ProfileAggressive
)

func (p RiskProfile) String() string {
	switch p {
	case ProfileConservative:
		return "conservative"
	case ProfileModerate:
		return "moderate"
	case ProfileAggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// ParseRiskProfile resolves a profile name, case-insensitively.
func ParseRiskProfile(name string) (RiskProfile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "conservative":
		return ProfileConservative, nil
	case "moderate":
		return ProfileModerate, nil
	case "aggressive":
		return ProfileAggressive, nil
	default:
		return 0, fmt.Errorf("unrecognized risk profile %q (expected conservative, moderate or aggressive)", name)
	}
}

// MarshalJSON encodes the profile by name.
func (p RiskProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a profile name.
func (p *RiskProfile) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseRiskProfile(name)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Thresholds is the numeric gate configuration bound to a profile.
type Thresholds struct {
	BollingerMargin float64 `json:"bollinger_margin"`
	RSIOversold     float64 `json:"rsi_oversold"`
	RSIOverbought   float64 `json:"rsi_overbought"`
	MACDThreshold   float64 `json:"macd_threshold"`
	VolumeThreshold float64 `json:"volume_threshold"`
}

// Thresholds returns the fixed threshold record for the profile.
func (p RiskProfile) Thresholds() Thresholds {
	switch p {
	case ProfileConservative:
		return Thresholds{
			BollingerMargin: 0.002, // 0.2% band margin
			RSIOversold:     35,
			RSIOverbought:   65,
			MACDThreshold:   0.3,
			VolumeThreshold: 1.05, // 5% above average volume
		}
	case ProfileAggressive:
		return Thresholds{
			BollingerMargin: 0.005, // 0.5% band margin
			RSIOversold:     45,
			RSIOverbought:   55,
			MACDThreshold:   0.1,
			VolumeThreshold: 1.01, // 1% above average volume
		}
	default: // ProfileModerate
		return Thresholds{
			BollingerMargin: 0.003, // 0.3% band margin
			RSIOversold:     40,
			RSIOverbought:   60,
			MACDThreshold:   0.2,
			VolumeThreshold: 1.03, // 3% above average volume
		}
	}
}
