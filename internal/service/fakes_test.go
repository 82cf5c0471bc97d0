package service

import (
	"context"
	"fmt"

	"github.com/qs3c/fable_go_server/internal/pkg/ai"
)

// 生成接口的假实现，记录调用次数

type fakeVision struct {
	description string
	err         error
	calls       int
}

func (f *fakeVision) DescribeImage(ctx context.Context, imageData []byte, format string) (string, error) {
	f.calls++
	return f.description, f.err
}

type fakeStoryGen struct {
	result *ai.StoryResult
	err    error
	calls  int
}

func (f *fakeStoryGen) SynthesizeStory(ctx context.Context, req *ai.StoryRequest) (*ai.StoryResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return fourChapterStory(), nil
}

type fakeImageGen struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeImageGen) SynthesizeImage(ctx context.Context, prompt string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.data != nil {
		return f.data, nil
	}
	return []byte{0x89, 0x50, 0x4e, 0x47}, nil
}

type fakeSpeechGen struct {
	audio string
	err   error
	calls int
}

func (f *fakeSpeechGen) SynthesizeSpeech(ctx context.Context, text string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.audio != "" {
		return f.audio, nil
	}
	return "UENN", nil // base64 of "PCM" 前缀无关紧要
}

type fakeStore struct {
	uploads int
	err     error
}

func (f *fakeStore) UploadAvatarImage(userID int64, data []byte) (string, error) {
	f.uploads++
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("https://cdn.example.com/avatars/%d.png", f.uploads), nil
}

func (f *fakeStore) UploadChapterImage(storyID int64, chapterIndex int, data []byte) (string, error) {
	f.uploads++
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("https://cdn.example.com/stories/%d/%d.png", storyID, chapterIndex), nil
}

func fourChapterStory() *ai.StoryResult {
	return &ai.StoryResult{
		Title: "A Grande Aventura",
		Chapters: []ai.StoryChapter{
			{Title: "Começo", Text: "Era uma vez.", VisualPrompt: "a sunny village"},
			{Title: "Meio", Text: "Algo aconteceu.", VisualPrompt: "a dark forest"},
			{Title: "Virada", Text: "Eles venceram.", VisualPrompt: "a bright clearing"},
			{Title: "Fim", Text: "Voltaram felizes.", VisualPrompt: "a warm home"},
		},
	}
}
