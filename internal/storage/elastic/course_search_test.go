package elastic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kena741/zuluskills-admin/internal/models"
)

func TestSearchBody(t *testing.T) {
	body := searchBody("golang", 5)
	assert.Equal(t, 5, body["size"])
	mm := body["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "golang", mm["query"])

	_, ok := searchBody("golang", 0)["size"]
	assert.False(t, ok)
}

func TestNewCourseDoc(t *testing.T) {
	desc := "All about Go"
	doc := newCourseDoc(models.Course{ID: "c1", Title: "Go", Slug: "go", Description: &desc})
	assert.Equal(t, courseDoc{Title: "Go", Slug: "go", Description: "All about Go"}, doc)

	assert.Empty(t, newCourseDoc(models.Course{Title: "x"}).Description)
}

func TestDecodeHits(t *testing.T) {
	ids, err := decodeHits(strings.NewReader(`{"hits":{"hits":[{"_id":"c2"},{"_id":""},{"_id":"7"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, []models.ID{"c2", "7"}, ids)

	_, err = decodeHits(strings.NewReader(`not json`))
	assert.Error(t, err)
}
