package ai

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// FallbackDescription 视觉分析失败时使用的通用外貌描述，
// 角色创建流程不允许只因为视觉分析失败而中断
const FallbackDescription = "a cheerful child with short brown hair, bright eyes and a warm smile"

// StoryRequest 故事生成输入
type StoryRequest struct {
	Theme                 string
	CharacterDescriptions []string
	Educational           bool
	EducationalGoal       string
}

// StoryChapter 结构化输出的单章
type StoryChapter struct {
	Title        string `json:"title"`
	Text         string `json:"text"`
	VisualPrompt string `json:"visual_prompt"`
}

// StoryResult 结构化输出的整篇故事
type StoryResult struct {
	Title    string         `json:"title"`
	Chapters []StoryChapter `json:"chapters"`
}

// BuildStoryPrompt 拼装故事生成提示词
func BuildStoryPrompt(req *StoryRequest) string {
	var b strings.Builder

	if req.Educational {
		b.WriteString("You are a children's book author writing a pedagogical fable for a classroom.\n")
		fmt.Fprintf(&b, "Learning objective: %s\n", req.EducationalGoal)
	} else {
		b.WriteString("You are a children's book author writing a short illustrated story.\n")
		fmt.Fprintf(&b, "Story theme: %s\n", req.Theme)
	}

	b.WriteString("\nCharacters (use all of them):\n")
	for i, desc := range req.CharacterDescriptions {
		fmt.Fprintf(&b, "- Character %d: %s\n", i+1, desc)
	}

	b.WriteString(`
Return JSON only, matching exactly this schema:
{"title":"...","chapters":[{"title":"...","text":"...","visual_prompt":"..."}]}

Hard constraints:
- Exactly 4 chapters.
- Each chapter text is 3-5 sentences, age-appropriate for children 4-8.
- "visual_prompt" is a concise English description of the chapter scene for an illustrator.
- No markdown, no comments, JSON only.
`)

	return b.String()
}

// ParseStoryJSON 解析结构化故事输出。
// 先剥掉可能的代码块包裹再解析；解析失败按生成失败处理
func ParseStoryJSON(raw string) (*StoryResult, error) {
	cleaned := CleanJSONResponse(raw)

	var result StoryResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadStoryFormat, err)
	}

	if strings.TrimSpace(result.Title) == "" {
		return nil, fmt.Errorf("%w: missing title", ErrBadStoryFormat)
	}
	if len(result.Chapters) != 4 {
		return nil, fmt.Errorf("%w: expected 4 chapters, got %d", ErrBadStoryFormat, len(result.Chapters))
	}
	for i, ch := range result.Chapters {
		if strings.TrimSpace(ch.Text) == "" {
			return nil, fmt.Errorf("%w: chapter %d has no text", ErrBadStoryFormat, i+1)
		}
	}

	return &result, nil
}

// BuildIllustrationPrompt 章节插画提示词：场景描述加上所有角色的外貌
func BuildIllustrationPrompt(visualPrompt string, characterDescriptions []string) string {
	var b strings.Builder
	b.WriteString("Children's storybook illustration, soft colors, friendly cartoon style. Scene: ")
	b.WriteString(visualPrompt)
	if len(characterDescriptions) > 0 {
		b.WriteString(" Characters: ")
		b.WriteString(strings.Join(characterDescriptions, "; "))
	}
	return b.String()
}

// BuildAvatarPrompt 角色形象提示词
func BuildAvatarPrompt(description string) string {
	return "Stylized children's book character portrait, friendly cartoon style, " +
		"soft colors, plain background. The character: " + description
}

func decodeBase64(data string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	return decoded, nil
}
