package service

import (
	"context"

	"github.com/qs3c/fable_go_server/internal/pkg/ai"
)

// 生成能力按用途拆成窄接口，ai.Client 全部实现。
// 服务层只依赖接口，测试用假实现替换

type VisionAnalyzer interface {
	DescribeImage(ctx context.Context, imageData []byte, format string) (string, error)
}

type StoryGenerator interface {
	SynthesizeStory(ctx context.Context, req *ai.StoryRequest) (*ai.StoryResult, error)
}

type ImageGenerator interface {
	SynthesizeImage(ctx context.Context, prompt string) ([]byte, error)
}

type SpeechGenerator interface {
	SynthesizeSpeech(ctx context.Context, text string) (string, error)
}

// ImageStore 生成产物的对象存储，oss.Client 实现
type ImageStore interface {
	UploadAvatarImage(userID int64, data []byte) (string, error)
	UploadChapterImage(storyID int64, chapterIndex int, data []byte) (string, error)
}
