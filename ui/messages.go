package ui

import (
	appmodel "orby/model"
	"orby/provider"
)

type Message = appmodel.Message

type streamChunkMsg = appmodel.StreamChunkMsg
type streamDoneMsg = appmodel.StreamDoneMsg
type streamErrorMsg = appmodel.StreamErrorMsg
type toolActivityMsg = appmodel.ToolActivityMsg
type confirmRequestMsg = appmodel.ConfirmRequestMsg
type markdownRenderedMsg = appmodel.MarkdownRenderedMsg
type modelsListMsg = appmodel.ModelsListMsg
type clipboardCopiedMsg = appmodel.ClipboardCopiedMsg
type flashTickMsg = appmodel.FlashTickMsg
type pingProviderMsg = provider.PingProviderMsg
