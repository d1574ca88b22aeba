package aistudio

import (
	"context"
	"fmt"
	"testing"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		kind MediaKind
		lang Language
		want string
	}{
		{&ConfigError{Setting: "api_key", Message: "missing"}, MediaImage, LanguageEnglish, "API key is not configured"},
		{&ValidationError{Field: "prompt", Message: "empty"}, MediaImage, LanguageChinese, "请输入描述文本"},
		{&ValidationError{Field: "prompt/source_image", Message: "empty"}, MediaVideo, LanguageEnglish, "Please enter a description or upload an image"},
		{&ValidationError{Field: "source_image", Message: "image is 6000000 bytes, limit is 5MB"}, MediaVideo, LanguageChinese, "图片大小不能超过5MB"},
		{&DownloadExhaustedError{Attempts: 3}, MediaImage, LanguageEnglish, "Failed to download image"},
		{&DownloadExhaustedError{Attempts: 3}, MediaVideo, LanguageChinese, "视频下载失败，请重试"},
		{&TaskFailedError{TaskID: "t1", Reason: "x"}, MediaVideo, LanguageEnglish, "Failed to generate video, please try again"},
		{&RemoteError{Status: 500}, MediaImage, LanguageEnglish, "Failed to generate image"},
		{&RemoteError{Status: 500}, MediaVideo, LanguageEnglish, "Failed to get video result, please try again"},
		{fmt.Errorf("wrapped: %w", ErrPollCancelled), MediaVideo, LanguageEnglish, "Generation cancelled"},
		{context.Canceled, MediaImage, LanguageChinese, "已取消生成"},
		{fmt.Errorf("something else"), MediaImage, LanguageEnglish, "Error generating image, please try again"},
	}

	for _, tt := range tests {
		if got := Describe(tt.err, tt.kind, tt.lang); got != tt.want {
			t.Errorf("Describe(%v, %s, %s) = %q, want %q", tt.err, tt.kind, tt.lang, got, tt.want)
		}
	}
}

func TestDescribeHidesDetail(t *testing.T) {
	msg := Describe(&RemoteError{Status: 401, Message: "token expired: abc123"}, MediaImage, LanguageEnglish)
	if msg != Message(MsgImageFailed, LanguageEnglish) {
		t.Errorf("Expected generic message, got %q", msg)
	}
}

func TestParseLanguage(t *testing.T) {
	for in, want := range map[string]Language{
		"zh":    LanguageChinese,
		"zh-CN": LanguageChinese,
		"ZH_tw": LanguageChinese,
		"en":    LanguageEnglish,
		"":      LanguageEnglish,
		"fr":    LanguageEnglish,
	} {
		if got := ParseLanguage(in); got != want {
			t.Errorf("ParseLanguage(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestMessageTablesComplete(t *testing.T) {
	for key := range messages[LanguageEnglish] {
		if _, ok := messages[LanguageChinese][key]; !ok {
			t.Errorf("missing zh message for %s", key)
		}
	}
	if Message("unknown", "de") != "unknown" {
		t.Error("Expected key fallback for unknown message")
	}
}
