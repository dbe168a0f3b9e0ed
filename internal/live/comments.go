package live

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
)

// fixtureComments is the rotating set of simulated viewer comments used in
// the absence of a real platform feed.
var fixtureComments = []string{
	"这个产品怎么用？",
	"主播好漂亮！",
	"价格能再优惠点吗？",
	"发货地是哪里？",
	"有没有售后服务？",
	"买过的朋友觉得怎么样？",
	"主播能演示一下吗？",
	"今天有什么特别优惠？",
	"适合送人吗？",
	"质量怎么样？",
}

// FixtureSource cycles through the fixture comments, labelling each with a
// pseudo-random viewer name. Safe for concurrent use by multiple pollers.
type FixtureSource struct {
	next atomic.Uint64
}

func NewFixtureSource() *FixtureSource {
	return &FixtureSource{}
}

func (s *FixtureSource) Next(now time.Time) domain.Comment {
	n := s.next.Add(1)
	return domain.Comment{
		Author:    fmt.Sprintf("观众%03d", now.UnixNano()%1000),
		Text:      fixtureComments[n%uint64(len(fixtureComments))],
		Timestamp: now,
	}
}
