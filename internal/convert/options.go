package convert

import (
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/loykin/j2g/internal/util"
)

// Profile names
const (
	ProfileUnified  = "unified"
	ProfileBasic    = "basic"
	ProfileEnhanced = "enhanced"
)

// ErrUnknownProfile is returned for a profile name that has no preset.
var ErrUnknownProfile = errors.New("convert: unknown profile")

// Options selects the conversion features. Every feature is independent;
// profiles are presets over them.
type Options struct {
	Profile         string `mapstructure:"profile" yaml:"profile" json:"profile"`
	InjectTools     bool   `mapstructure:"inject_tools" yaml:"inject_tools" json:"inject_tools"`
	InjectSecrets   bool   `mapstructure:"inject_secrets" yaml:"inject_secrets" json:"inject_secrets"`
	ExpandParallel  bool   `mapstructure:"expand_parallel" yaml:"expand_parallel" json:"expand_parallel"`
	DockerBroadcast bool   `mapstructure:"docker_broadcast" yaml:"docker_broadcast" json:"docker_broadcast"`
	TestMatrix      bool   `mapstructure:"test_matrix" yaml:"test_matrix" json:"test_matrix"`
	BuildMatrix     bool   `mapstructure:"build_matrix" yaml:"build_matrix" json:"build_matrix"`
	// Strict turns job id collisions into errors.
	Strict bool `mapstructure:"strict" yaml:"strict" json:"strict"`
	// MaxBlocks bounds block extraction; zero selects the default.
	MaxBlocks int `mapstructure:"max_blocks" yaml:"max_blocks" json:"max_blocks"`
}

// DefaultOptions returns the unified profile.
func DefaultOptions() Options {
	o, _ := ProfileOptions(ProfileUnified)
	return o
}

// ProfileOptions returns the preset for the named profile. An empty name selects unified.
func ProfileOptions(name string) (Options, error) {
	switch util.TrimWithDefault(util.TrimAndLower(name), ProfileUnified) {
	case ProfileUnified:
		return Options{
			Profile:        ProfileUnified,
			InjectTools:    true,
			InjectSecrets:  true,
			ExpandParallel: true,
			TestMatrix:     true,
		}, nil
	case ProfileBasic:
		return Options{
			Profile:        ProfileBasic,
			ExpandParallel: true,
			BuildMatrix:    true,
		}, nil
	case ProfileEnhanced:
		return Options{
			Profile:         ProfileEnhanced,
			InjectTools:     true,
			InjectSecrets:   true,
			DockerBroadcast: true,
			TestMatrix:      true,
		}, nil
	default:
		return Options{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
}

// OptionsFromMap starts from the profile named by m["profile"] and applies the
// remaining keys on top. Values may be strings ("true", "64"), as found in
// query parameters and form fields.
func OptionsFromMap(m map[string]interface{}) (Options, error) {
	name, _ := m["profile"].(string)
	opts, err := ProfileOptions(name)
	if err != nil {
		return Options{}, err
	}
	return opts.Apply(m)
}

// Apply returns a copy of o with the keys of m decoded on top. A "profile"
// key is skipped; use OptionsFromMap to switch presets.
func (o Options) Apply(m map[string]interface{}) (Options, error) {
	opts := o
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Options{}, err
	}
	rest := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k != "profile" {
			rest[k] = v
		}
	}
	if err := dec.Decode(rest); err != nil {
		return Options{}, fmt.Errorf("convert: decode options: %w", err)
	}
	return opts, nil
}
