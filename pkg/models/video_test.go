package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityListRoundTrip(t *testing.T) {
	q := QualityList{"144p", "360p", "720p"}
	assert.Equal(t, "144p,360p,720p", q.Join())
	assert.Equal(t, q, ParseQualityList("144p,360p,720p"))

	assert.Nil(t, ParseQualityList(""))
	assert.Equal(t, "", QualityList(nil).Join())
}

func TestQualityListContains(t *testing.T) {
	q := QualityList{"360p", "720p"}
	assert.True(t, q.Contains("720p"))
	assert.False(t, q.Contains("1080p"))
	assert.False(t, QualityList(nil).Contains("360p"))
}

func TestQualityListIntersect(t *testing.T) {
	allowed := QualityList{"144p", "240p", "360p", "480p", "720p"}

	// requested order wins, unknown labels are dropped
	got := allowed.Intersect(QualityList{"720p", "1080p", "144p"})
	assert.Equal(t, QualityList{"720p", "144p"}, got)

	assert.Nil(t, allowed.Intersect(QualityList{"1080p", "2160p"}))
	assert.Nil(t, allowed.Intersect(nil))
}
