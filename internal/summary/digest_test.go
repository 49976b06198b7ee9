package summary

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/crednews/internal/news"
)

func fixture() []news.Article {
	return []news.Article{
		{
			Title:       "Open Badge adoption grows in universities",
			URL:         "https://edtech.com/a",
			PublishedAt: "2024-03-01T10:00:00Z",
			Source:      news.Source{Name: "edtech.com"},
			Language:    news.LanguageEnglish,
		},
		{
			Title:       "블록체인 기반 디지털 자격증명 도입",
			URL:         "https://www.korea.kr/b",
			PublishedAt: "2024-02-15T00:00:00Z",
			Source:      news.Source{Name: "korea.kr"},
			Language:    news.LanguageKorean,
			Content:     "Government announces blockchain credential policy",
		},
		{
			Title:    "Weather today",
			URL:      "https://weather.org/c",
			Source:   news.Source{Name: "weather.org"},
			Language: news.LanguageEnglish,
		},
	}
}

func TestDigestSummarize(t *testing.T) {
	got, err := NewDigest(time.UTC).Summarize(fixture())
	require.NoError(t, err)

	for _, label := range []string{LabelTopics, LabelSources, LabelRecent, LabelDateRange, LabelDistribution, LabelExcerpts} {
		assert.Contains(t, got, label)
	}

	assert.True(t, strings.HasPrefix(got, "이번 뉴스 모음에서는 3개의 관련 기사를 수집했습니다. 3개의 다양한 언론사에서 보도했으며, "))
	assert.Contains(t, got, "주요 주제는 open, badge, adoption, grows, universities입니다.")
	assert.Contains(t, got, "주요 언론사로는 edtech.com(1건), korea.kr(1건), weather.org(1건) 등이 있으며, 최근 주요 보도로는:\n")
	assert.Contains(t, got, `- "Open Badge adoption grows in universities" (edtech.com, 2024. 3. 1.)`)
	assert.Contains(t, got, `- "Weather today" (weather.org, 날짜 미상) 등이 있습니다.`)
	assert.Contains(t, got, "기사 발행 기간: 2024. 2. 15. ~ 2024. 3. 1.")
	assert.Contains(t, got, "주제별 기사 분포:\n- 오픈배지: 1건 (33.3%)\n- 디지털 크리덴셜: 1건 (33.3%)\n- 블록체인: 1건 (33.3%)\n- 정책: 1건 (33.3%)\n- 기타: 1건 (33.3%)")
	assert.Contains(t, got, "주요 기사 내용:\n- 블록체인 기반 디지털 자격증명 도입 (korea.kr, 2024. 2. 15.):\n  Government announces blockchain credential policy...")
}

func TestDigestWithoutContentOmitsExcerpts(t *testing.T) {
	articles := fixture()
	articles[1].Content = ""

	got, err := NewDigest(nil).Summarize(articles)
	require.NoError(t, err)
	assert.NotContains(t, got, LabelExcerpts)
}

func TestDigestEmpty(t *testing.T) {
	_, err := NewDigest(time.UTC).Summarize(nil)
	assert.ErrorIs(t, err, ErrNoArticles)
}

func TestDigestSingleUndatedArticle(t *testing.T) {
	got, err := NewDigest(time.UTC).Summarize([]news.Article{{Title: "a b c", Source: news.Source{Name: "x"}}})
	require.NoError(t, err)
	assert.Contains(t, got, "주요 주제는 다양한 주제입니다.")
	assert.Contains(t, got, "기사 발행 기간: 날짜 미상 ~ 날짜 미상")
	assert.Contains(t, got, "- 기타: 1건 (100.0%)")
}

func TestDigestUsesLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	articles := []news.Article{{Title: "t", Source: news.Source{Name: "s"}, PublishedAt: "2024-01-31T20:00:00Z"}}

	got, err := NewDigest(seoul).Summarize(articles)
	require.NoError(t, err)
	assert.Contains(t, got, "2024. 2. 1.")
}

func TestTopicCountsMultiBucket(t *testing.T) {
	counts := TopicCounts([]news.Article{{Title: "Blockchain badge for university students"}})

	assert.Equal(t, []Count{
		{Name: "오픈배지", Count: 1},
		{Name: "블록체인", Count: 1},
		{Name: "교육", Count: 1},
	}, counts)

	got, err := NewDigest(time.UTC).Summarize([]news.Article{{Title: "Blockchain badge for university students", Source: news.Source{Name: "s"}}})
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(got, "(100.0%)"))
}

func TestKeywords(t *testing.T) {
	articles := []news.Article{
		{Title: "Credential wallets", Content: "credential standards would change credential wallets"},
		{Title: "The badge", Content: "badge badge"},
	}

	assert.Equal(t, []string{"credential", "badge", "wallets", "standards", "change"}, Keywords(articles, 5))
	assert.Equal(t, []string{"credential"}, Keywords(articles, 1))
}

func TestSourceCountsTieBreak(t *testing.T) {
	articles := []news.Article{
		{Source: news.Source{Name: "X"}},
		{Source: news.Source{Name: "Y"}},
		{Source: news.Source{Name: "Z"}},
		{Source: news.Source{Name: "Y"}},
		{Source: news.Source{Name: "X"}},
	}

	assert.Equal(t, []Count{{"X", 2}, {"Y", 2}, {"Z", 1}}, SourceCounts(articles))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "디지", truncateRunes("디지털", 2))
	assert.Equal(t, "abc", truncateRunes("abc", 5))
}
