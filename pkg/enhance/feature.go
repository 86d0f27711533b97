package enhance

import "github.com/jackhunterking/beautycanvas/pkg/errors"

// Feature is one purchasable enhancement: the remote model that implements
// it and the credit cost charged on completion.
type Feature struct {
	Key     string `toml:"key"`
	ModelID string `toml:"model_id"`
	Cost    int    `toml:"cost"`
}

// Catalog maps feature keys to their definitions.
type Catalog map[string]Feature

// Feature keys the default catalog ships with.
const (
	FeatureBackgroundRemove  = "background_remove"
	FeatureBackgroundReplace = "background_replace"
	FeatureSkinSmooth        = "skin_smooth"
	FeatureTeethWhiten       = "teeth_whiten"
)

// DefaultCatalog returns the built-in feature set. Deployments override it
// from configuration.
func DefaultCatalog() Catalog {
	return Catalog{
		FeatureBackgroundRemove:  {Key: FeatureBackgroundRemove, ModelID: "birefnet/v2", Cost: 1},
		FeatureBackgroundReplace: {Key: FeatureBackgroundReplace, ModelID: "bria/background/replace", Cost: 2},
		FeatureSkinSmooth:        {Key: FeatureSkinSmooth, ModelID: "retouch/skin-smooth", Cost: 1},
		FeatureTeethWhiten:       {Key: FeatureTeethWhiten, ModelID: "retouch/teeth-whiten", Cost: 1},
	}
}

// Lookup resolves a feature key, validating its shape first.
func (c Catalog) Lookup(key string) (Feature, error) {
	if err := errors.ValidateFeatureKey(key); err != nil {
		return Feature{}, err
	}
	f, ok := c[key]
	if !ok {
		return Feature{}, errors.New(errors.ErrCodeValidation, "unknown enhancement feature %q", key)
	}
	return f, nil
}
