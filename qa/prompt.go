package qa

import (
	"strings"

	"github.com/communitykit/smartqa/llm"
)

// ChatTurn is one prior conversation turn as supplied by the caller.
// History is not persisted server-side; the caller sends it wholesale on
// every request.
type ChatTurn struct {
	Role    string
	Content string
}

// Request is one question from a caller whose identity, if any, has
// already been resolved upstream. OwnerID 0 means anonymous.
type Request struct {
	Question string
	History  []ChatTurn
	OwnerID  int64
}

// BuildSystemPrompt assembles the system prompt from the three context
// blocks. Grounded mode (any knowledge or structured content present)
// injects the answer-from-the-material rule set; ungrounded mode injects
// the no-local-information disclosure. Pure string construction, no I/O.
func BuildSystemPrompt(ownerInfo, knowledgeContext, structuredContext string, grounded bool) string {
	var prompt strings.Builder

	prompt.WriteString("你是一个专业的智能社区助手，负责回答业主关于社区服务、物业管理、生活便利等方面的问题。\n\n")

	if ownerInfo != "" {
		prompt.WriteString(ownerInfo)
		prompt.WriteString("\n")
	}

	if grounded {
		prompt.WriteString("=== 社区本地信息 ===\n")
		if knowledgeContext != "" {
			prompt.WriteString(knowledgeContext)
			prompt.WriteString("\n")
		}
		if structuredContext != "" {
			prompt.WriteString(structuredContext)
			prompt.WriteString("\n")
		}

		prompt.WriteString("=== 回答要求 ===\n")
		prompt.WriteString("⭐ **【极其重要】** ⭐\n")
		prompt.WriteString("如果上方\"社区知识库相关信息\"中包含\"详细内容\"，那么：\n")
		prompt.WriteString("1. **必须完全基于文档内容进行回答**\n")
		prompt.WriteString("2. **不得编造、臆断、或使用网络通用答案**\n")
		prompt.WriteString("3. **必须从文档中提取关键信息，总结概括、分点说明**\n")
		prompt.WriteString("4. **回答内容的表述方式可以改进，但核心内容必须来自文档**\n")
		prompt.WriteString("5. 用\"根据社区的《\"+ 文档标题 +\"》规定，...\"的格式开头\n")
		prompt.WriteString("6. 回答要简洁明了，重点突出，分点说明文档内容\n")
		prompt.WriteString("7. 如果文档内容不完整或有疑问，建议业主咨询物业客服\n\n")
	} else {
		prompt.WriteString("⚠️ **重要提示** ⚠️\n")
		prompt.WriteString("当前社区暂无相关信息（知识库和数据库中均未找到相关内容）。\n\n")
		prompt.WriteString("=== 回答要求 ===\n")
		prompt.WriteString("1. **必须明确说明**：\"当前社区暂无相关信息\"\n")
		prompt.WriteString("2. 然后说明：\"以下是网络上的常用解决方案，仅供参考\"\n")
		prompt.WriteString("3. 再提供基于常识和专业知识的网络通用建议\n")
		prompt.WriteString("4. 最后建议业主联系物业客服获取准确信息\n")
		prompt.WriteString("5. 回答格式示例：\n")
		prompt.WriteString("   \"当前社区暂无相关信息。\n")
		prompt.WriteString("   以下是网络上的常用解决方案，仅供参考：\n")
		prompt.WriteString("   [提供通用建议]\n")
		prompt.WriteString("   建议您联系物业客服（电话：XXX）获取准确信息。\"\n\n")
	}

	prompt.WriteString("请基于以上信息和要求，回答业主的问题。")

	return prompt.String()
}

// BuildMessages linearizes the conversation: system prompt first, then the
// caller's prior turns in order, then the current question. Turns with an
// unrecognized role are dropped silently.
func BuildMessages(systemPrompt string, history []ChatTurn, question string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})

	for _, turn := range history {
		switch turn.Role {
		case llm.RoleUser:
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: turn.Content})
		case llm.RoleAssistant:
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: turn.Content})
		}
	}

	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})
	return messages
}
