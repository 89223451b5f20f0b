package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	m := Default()

	assert.Equal(t, "抱歉，我没有听清，请再说一遍。", m.ChatEmptyReply)
	assert.Equal(t, "网络好像有点问题，请稍后再试。", m.ChatFailed)
	assert.Equal(t, "生成食谱失败，请检查网络或稍后再试。", m.GenerationFailed)
	assert.NotEmpty(t, m.ChatGreeting)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("app_name: x\nnot_a_key: y\n"))
	require.Error(t, err)
}

func TestSubtitle(t *testing.T) {
	m := Messages{PlanSubtitle: "({{height}}cm / {{weight}}kg)"}

	assert.Equal(t, "(170cm / 70.5kg)", m.Subtitle(170, 70.5))
}
