package attack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Size  int    `mapstructure:"size" validate:"gte=1"`
	Label string `mapstructure:"label"`
	Limit *int   `mapstructure:"limit"`
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry[*widget]("widget")
	require.NoError(t, r.Register("small", func(kw Kwargs) (*widget, error) {
		w := &widget{}
		return w, kw.Decode(w)
	}))

	w, err := r.Get("small", Kwargs{"size": 2, "label": "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, w.Size)
	assert.Equal(t, "a", w.Label)
	assert.Nil(t, w.Limit)

	assert.True(t, r.Has("small"))
	assert.Equal(t, []string{"small"}, r.List())
	assert.Equal(t, "widget", r.Kind())
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry[int]("number")
	factory := func(Kwargs) (int, error) { return 1, nil }
	require.NoError(t, r.Register("one", factory))
	assert.Error(t, r.Register("one", factory))
	assert.Panics(t, func() { r.MustRegister("one", factory) })
}

func TestRegistryUnknownName(t *testing.T) {
	r := NewRegistry[int]("number")
	_, err := r.Get("missing", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), `number "missing"`)
}

func TestRegistryFactoryError(t *testing.T) {
	r := NewRegistry[*widget]("widget")
	r.MustRegister("strict", func(kw Kwargs) (*widget, error) {
		w := &widget{}
		if err := kw.Decode(w); err != nil {
			return nil, err
		}
		return w, nil
	})

	_, err := r.Get("strict", Kwargs{"size": 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build widget strict")
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestKwargsMerge(t *testing.T) {
	base := Kwargs{"lr": 0.1, "k": 3}
	merged := base.Merge(map[string]interface{}{"lr": 0.01}, map[string]interface{}{"extra": true})

	assert.Equal(t, Kwargs{"lr": 0.01, "k": 3, "extra": true}, merged)
	assert.Equal(t, 0.1, base["lr"])
}

func TestKwargsDecodeWeakTypes(t *testing.T) {
	limit := 4
	w := &widget{}
	require.NoError(t, Kwargs{"size": "5", "limit": limit, "unused": 1}.Decode(w))
	assert.Equal(t, 5, w.Size)
	require.NotNil(t, w.Limit)
	assert.Equal(t, 4, *w.Limit)
}
