package aistudio

import (
	"errors"
	"strings"
)

// Language selects the table used for user-facing messages
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageChinese Language = "zh"
)

// ParseLanguage maps a tag such as "zh-CN" or "en_US" to a Language,
// defaulting to English
func ParseLanguage(tag string) Language {
	if strings.HasPrefix(strings.ToLower(tag), "zh") {
		return LanguageChinese
	}
	return LanguageEnglish
}

// MessageKey names a user-facing message
type MessageKey string

const (
	MsgMissingPrompt      MessageKey = "missing_prompt"
	MsgMissingInput       MessageKey = "missing_input"
	MsgMissingCredential  MessageKey = "missing_credential"
	MsgImageTooLarge      MessageKey = "image_too_large"
	MsgImageReadFailed    MessageKey = "image_read_failed"
	MsgInvalidOption      MessageKey = "invalid_option"
	MsgImageGenerated     MessageKey = "image_generated"
	MsgImageFailed        MessageKey = "image_failed"
	MsgImageError         MessageKey = "image_error"
	MsgVideoGenerated     MessageKey = "video_generated"
	MsgVideoFailed        MessageKey = "video_failed"
	MsgVideoError         MessageKey = "video_error"
	MsgVideoStatusFailed  MessageKey = "video_status_failed"
	MsgCancelled          MessageKey = "cancelled"
	MsgImageDownloaded    MessageKey = "image_downloaded"
	MsgImageDownloadError MessageKey = "image_download_error"
	MsgVideoDownloaded    MessageKey = "video_downloaded"
	MsgVideoDownloadError MessageKey = "video_download_error"
	MsgDownloading        MessageKey = "downloading"
	MsgGenerating         MessageKey = "generating"
)

var messages = map[Language]map[MessageKey]string{
	LanguageEnglish: {
		MsgMissingPrompt:      "Please enter a description",
		MsgMissingInput:       "Please enter a description or upload an image",
		MsgMissingCredential:  "API key is not configured",
		MsgImageTooLarge:      "Image size cannot exceed 5MB",
		MsgImageReadFailed:    "Failed to read image",
		MsgInvalidOption:      "Invalid generation option",
		MsgImageGenerated:     "Image generated successfully!",
		MsgImageFailed:        "Failed to generate image",
		MsgImageError:         "Error generating image, please try again",
		MsgVideoGenerated:     "Video generated successfully!",
		MsgVideoFailed:        "Failed to generate video, please try again",
		MsgVideoError:         "Error generating video, please try again",
		MsgVideoStatusFailed:  "Failed to get video result, please try again",
		MsgCancelled:          "Generation cancelled",
		MsgImageDownloaded:    "Image downloaded successfully",
		MsgImageDownloadError: "Failed to download image",
		MsgVideoDownloaded:    "Video downloaded successfully",
		MsgVideoDownloadError: "Failed to download video, please try again",
		MsgDownloading:        "Downloading...",
		MsgGenerating:         "Generating...",
	},
	LanguageChinese: {
		MsgMissingPrompt:      "请输入描述文本",
		MsgMissingInput:       "请输入描述文本或上传图片",
		MsgMissingCredential:  "未配置 API 密钥",
		MsgImageTooLarge:      "图片大小不能超过5MB",
		MsgImageReadFailed:    "读取图片失败",
		MsgInvalidOption:      "生成参数无效",
		MsgImageGenerated:     "图片生成成功！",
		MsgImageFailed:        "生成图片失败",
		MsgImageError:         "生成图片时出错，请重试",
		MsgVideoGenerated:     "视频生成成功！",
		MsgVideoFailed:        "生成视频失败，请重试",
		MsgVideoError:         "生成视频时出错，请重试",
		MsgVideoStatusFailed:  "获取视频结果失败，请重试",
		MsgCancelled:          "已取消生成",
		MsgImageDownloaded:    "图片下载成功",
		MsgImageDownloadError: "下载图片失败",
		MsgVideoDownloaded:    "视频下载成功",
		MsgVideoDownloadError: "视频下载失败，请重试",
		MsgDownloading:        "正在下载...",
		MsgGenerating:         "正在生成...",
	},
}

// Message returns the text for key in lang
func Message(key MessageKey, lang Language) string {
	table, ok := messages[lang]
	if !ok {
		table = messages[LanguageEnglish]
	}
	if msg, ok := table[key]; ok {
		return msg
	}
	return string(key)
}

// Describe turns err into a short message for end users. Status codes and
// raw provider text stay out of it; log err itself for those.
func Describe(err error, kind MediaKind, lang Language) string {
	return Message(describeKey(err, kind), lang)
}

func describeKey(err error, kind MediaKind) MessageKey {
	var (
		configErr     *ConfigError
		validationErr *ValidationError
		exhaustedErr  *DownloadExhaustedError
		taskErr       *TaskFailedError
		remoteErr     *RemoteError
	)

	switch {
	case IsCancelled(err):
		return MsgCancelled
	case errors.As(err, &configErr):
		return MsgMissingCredential
	case errors.As(err, &validationErr):
		switch validationErr.Field {
		case "prompt":
			return MsgMissingPrompt
		case "prompt/source_image":
			return MsgMissingInput
		case "source_image":
			if strings.Contains(validationErr.Message, "limit") {
				return MsgImageTooLarge
			}
			return MsgImageReadFailed
		}
		return MsgInvalidOption
	case errors.As(err, &exhaustedErr):
		if kind == MediaVideo {
			return MsgVideoDownloadError
		}
		return MsgImageDownloadError
	case errors.As(err, &taskErr):
		return MsgVideoFailed
	case errors.As(err, &remoteErr):
		if kind == MediaVideo {
			return MsgVideoStatusFailed
		}
		return MsgImageFailed
	}

	if kind == MediaVideo {
		return MsgVideoError
	}
	return MsgImageError
}
