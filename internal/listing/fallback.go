package listing

import (
	"time"

	"github.com/Eninte/ai-resource-navigator/internal/domain"
)

// FallbackWarning accompanies every page served from the fallback dataset.
const FallbackWarning = "Using mock data due to database connection error"

type fallbackEntry struct {
	id, name, description, url, category string
	price                                domain.PriceTier
	openSource                           bool
	globalSticky                         int
}

var fallbackEntries = []fallbackEntry{
	{"mock-1", "GPT-4", "OpenAI 开发的大型语言模型，具有强大的理解和生成能力，支持多种任务如对话、写作、编程辅助等。", "https://openai.com/gpt-4", "foundation-models", domain.PriceFreemium, false, 1},
	{"mock-2", "GitHub Copilot", "AI 编程助手，能够根据上下文自动补全代码，支持多种编程语言和 IDE。", "https://github.com/features/copilot", "coding", domain.PriceFreemium, false, 0},
	{"mock-3", "Midjourney", "AI 图像生成工具，通过文本描述创建高质量的艺术图像。", "https://midjourney.com", "image", domain.PriceFreemium, false, 0},
	{"mock-4", "Claude", "Anthropic 开发的 AI 助手，擅长长文本理解、写作和对话。", "https://claude.ai", "foundation-models", domain.PriceFreemium, false, 0},
	{"mock-5", "Notion AI", "集成在 Notion 中的 AI 助手，帮助写作、总结和头脑风暴。", "https://notion.so", "knowledge", domain.PriceFreemium, false, 0},
	{"mock-6", "ChatGPT", "OpenAI 开发的对话式 AI，能够进行自然语言对话并协助完成各种任务。", "https://chat.openai.com", "foundation-models", domain.PriceFreemium, false, 0},
	{"mock-7", "Stable Diffusion", "开源的 AI 图像生成模型，可以在本地运行生成高质量图像。", "https://stability.ai", "image", domain.PriceFree, true, 0},
	{"mock-8", "Jasper", "AI 写作助手，专注于营销文案、博客文章和社交媒体内容创作。", "https://jasper.ai", "writing", domain.PricePaid, false, 0},
	{"mock-9", "DeepL", "AI 驱动的翻译工具，提供高质量的机器翻译服务。", "https://deepl.com", "writing", domain.PriceFreemium, false, 0},
	{"mock-10", "Gamma", "AI 演示文稿生成工具，通过文本描述快速创建精美的 PPT。", "https://gamma.app", "office", domain.PriceFreemium, false, 0},
	{"mock-11", "Elicit", "AI 科研助手，帮助研究人员快速找到相关论文和提取关键信息。", "https://elicit.org", "research", domain.PriceFreemium, false, 0},
	{"mock-12", "Character.AI", "AI 角色扮演平台，可以与各种虚拟角色进行对话。", "https://character.ai", "entertainment", domain.PriceFreemium, false, 0},
}

// FallbackResources returns a fresh copy of the built-in dataset, every
// entry published at now.
func FallbackResources(now time.Time) []domain.Resource {
	out := make([]domain.Resource, len(fallbackEntries))
	for i, e := range fallbackEntries {
		published := now
		out[i] = domain.Resource{
			ID:                e.id,
			Name:              e.name,
			Description:       e.description,
			URL:               e.url,
			Category:          e.category,
			Price:             e.price,
			IsOpenSource:      e.openSource,
			Status:            domain.StatusPublished,
			Source:            "fallback",
			CreatedAt:         now,
			PublishedAt:       &published,
			GlobalStickyOrder: e.globalSticky,
		}
	}
	return out
}

// FallbackStats is the per-category published count served when the store
// is unavailable.
func FallbackStats() map[string]int {
	return map[string]int{
		"foundation-models": 3,
		"coding":            1,
		"image":             2,
		"writing":           2,
		"office":            1,
		"knowledge":         1,
		"research":          1,
		"robotics":          0,
		"entertainment":     1,
	}
}
