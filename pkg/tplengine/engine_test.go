package tplengine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateEngine_Render(t *testing.T) {
	t.Run("Should render a registered template", func(t *testing.T) {
		e := NewEngine().MustAddTemplate("q", "Question: {{ .question }}")
		out, err := e.Render("q", map[string]any{"question": "Hava nasıl?"})
		require.NoError(t, err)
		assert.Equal(t, "Question: Hava nasıl?", out)
	})
	t.Run("Should fail on a missing key", func(t *testing.T) {
		e := NewEngine().MustAddTemplate("q", "{{ .question }}")
		_, err := e.Render("q", map[string]any{})
		require.Error(t, err)
	})
	t.Run("Should fail on an unknown template", func(t *testing.T) {
		_, err := NewEngine().Render("missing", nil)
		assert.ErrorContains(t, err, "template not found")
	})
	t.Run("Should expose sprig helpers", func(t *testing.T) {
		out, err := NewEngine().RenderString(`{{ .name | upper }} {{ join ", " .items }}`, map[string]any{
			"name":  "izmir",
			"items": []string{"a", "b"},
		})
		require.NoError(t, err)
		assert.Equal(t, "IZMIR a, b", out)
	})
	t.Run("Should let call data override globals", func(t *testing.T) {
		e := NewEngine()
		e.AddGlobalValue("home", "Ayrancılar")
		out, err := e.RenderString("{{ .home }}", map[string]any{"home": "Bornova"})
		require.NoError(t, err)
		assert.Equal(t, "Bornova", out)
	})
	t.Run("Should return plain strings untouched", func(t *testing.T) {
		out, err := NewEngine().RenderString("no actions here", nil)
		require.NoError(t, err)
		assert.Equal(t, "no actions here", out)
	})
	t.Run("Should render concurrently", func(t *testing.T) {
		e := NewEngine().MustAddTemplate("n", "{{ .n }}")
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out, err := e.Render("n", map[string]any{"n": i})
				assert.NoError(t, err)
				assert.NotEmpty(t, out)
			}(i)
		}
		wg.Wait()
	})
}

func TestTemplateEngine_AddTemplate(t *testing.T) {
	t.Run("Should report parse errors", func(t *testing.T) {
		err := NewEngine().AddTemplate("bad", "{{ .x ")
		require.Error(t, err)
	})
}
