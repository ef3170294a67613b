package attack

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// Kwargs are the merged section parameters handed to a factory, keyed by
// short param name
type Kwargs map[string]interface{}

// Merge returns a copy of k overlaid with each of others in turn
func (k Kwargs) Merge(others ...map[string]interface{}) Kwargs {
	out := make(Kwargs, len(k))
	for key, v := range k {
		out[key] = v
	}
	for _, o := range others {
		for key, v := range o {
			out[key] = v
		}
	}
	return out
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Decode fills out (a pointer to a struct with mapstructure tags) from the
// kwargs and validates it against its validate tags. Keys without a matching
// field are ignored.
func (k Kwargs) Decode(out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(map[string]interface{}(k)); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := getValidator().Struct(out); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}
