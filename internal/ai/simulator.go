package ai

import (
	"context"
	"encoding/base64"
	"hash/fnv"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
)

// simulatedReplies pair up with the comment fixtures; the index is derived
// from a hash of the comment so the same question always gets the same
// answer.
var simulatedReplies = []string{
	"感谢您的提问！这款产品使用非常简单，只需三步操作即可。",
	"谢谢夸奖！今天我们的重点是给大家带来优质的产品介绍。",
	"今天的价格已经是最大优惠了，直播间专享价哦！",
	"我们是从浙江杭州发货，全国大部分地区2-3天可达。",
	"我们提供7天无理由退换货和1年质保服务。",
	"这款产品复购率很高，很多老顾客都反馈使用效果很好。",
	"稍后我会为大家详细演示产品使用方法。",
	"今天下单的前100名观众会额外赠送精美礼品！",
	"这款产品包装精美，非常适合作为礼物赠送。",
	"我们产品采用优质材料制造，质量有保证，请放心购买。",
}

// SimulatedTextGen is the offline text-generation collaborator, used when no
// API key is configured.
type SimulatedTextGen struct{}

func (SimulatedTextGen) Complete(_ context.Context, commentText string, _ domain.Settings) (string, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(commentText))
	return simulatedReplies[h.Sum32()%uint32(len(simulatedReplies))], nil
}

// SimulatedSpeech returns a fixed data URL instead of calling a TTS service.
type SimulatedSpeech struct{}

func (SimulatedSpeech) Synthesize(context.Context, string, string, int, int) (string, error) {
	return "data:audio/mp3;base64," + base64.StdEncoding.EncodeToString([]byte("simulated_audio_data")), nil
}
