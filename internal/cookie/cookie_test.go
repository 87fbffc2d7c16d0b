package cookie

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	infos := Parse("a=1; theme=dark%20mode;broken; x=y=z ; empty=")
	assert.Equal(t, []Info{
		{Name: "a", Value: "1"},
		{Name: "theme", Value: "dark mode"},
		{Name: "empty", Value: ""},
	}, infos)
}

func TestParse_KeepsPlusSign(t *testing.T) {
	assert.Equal(t, []Info{
		{Name: "q", Value: "a+b"},
		{Name: "r", Value: "100%"},
	}, Parse("q=a+b; r=100%25"))
}

func TestDemo_ValuesRoundTrip(t *testing.T) {
	header := ""
	for _, c := range Demo(time.Now()) {
		header += c.Name + "=" + c.Value + "; "
	}
	infos := Parse(header)
	require.Len(t, infos, 6)
	assert.Equal(t, Info{Name: "language", Value: "en-US"}, infos[2])
}

func TestParse_Empty(t *testing.T) {
	infos := Parse("")
	assert.NotNil(t, infos)
	assert.Empty(t, infos)
}

func TestParse_BadEscapeKeepsRawValue(t *testing.T) {
	assert.Equal(t, []Info{{Name: "a", Value: "%zz"}}, Parse("a=%zz"))
}

func TestDemo(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	cookies := Demo(now)
	require.Len(t, cookies, 6)

	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
		assert.Equal(t, "/", c.Path)
		assert.True(t, c.Expires.After(now))
		assert.NoError(t, c.Valid())
	}
	assert.Equal(t, []string{"demo_user", "theme_preference", "language", "last_visit", "demo_session", "campaign_source"}, names)

	lastVisit, err := url.PathUnescape(cookies[3].Value)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T10:00:00Z", lastVisit)
	assert.Len(t, cookies[4].Value, 8)
}
