package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roamplan/roamplan-backend/internal/domain"
)

const (
	PlannerSystemRole   = "你是一位专业的旅行规划师，擅长根据用户需求制定详细的旅行计划。请以 JSON 格式返回行程安排。"
	OptimizerSystemRole = "你是专业的旅行规划师，擅长优化行程路线和时间安排。请以 JSON 格式返回优化后的行程。"
)

// BuildPlanPrompt renders the generation prompt, embedding the request fields
// and a strict description of the output schema.
func BuildPlanPrompt(req domain.TravelRequest) string {
	var b strings.Builder

	b.WriteString("请为我规划一次旅行：\n\n")
	fmt.Fprintf(&b, "目的地：%s\n", req.Destination)
	fmt.Fprintf(&b, "旅行天数：%d天\n", req.Days)
	fmt.Fprintf(&b, "预算：%.0f元\n", req.Budget)
	fmt.Fprintf(&b, "同行人数：%d人\n", req.Travelers)
	fmt.Fprintf(&b, "旅行偏好：%s\n", strings.Join(req.Preferences, "、"))
	if req.WithChildren {
		b.WriteString("带孩子同行\n")
	}
	startDate := "待定"
	if req.StartDate != nil && *req.StartDate != "" {
		startDate = *req.StartDate
	}
	fmt.Fprintf(&b, "出发日期：%s\n", startDate)

	b.WriteString(`
请按以下 JSON 格式返回详细的旅行计划：

{
  "title": "行程标题",
  "summary": "行程概述",
  "itinerary": [
    {
      "day": 1,
      "date": "日期",
      "theme": "当天主题",
      "activities": [
        {
          "time": "09:00",
          "type": "景点",
          "name": "景点名称",
          "description": "简要描述",
          "address": "详细地址",
          "estimatedCost": 100,
          "duration": 120,
          "tips": "游玩建议"
        }
      ],
      "accommodation": {
        "name": "酒店名称",
        "type": "酒店类型",
        "address": "酒店地址",
        "price": 300
      }
    }
  ],
  "budget": {
    "transportation": 2000,
    "accommodation": 3000,
    "food": 2000,
    "activities": 2000,
    "shopping": 500,
    "other": 500,
    "total": 10000
  },
  "tips": [
    "旅行建议1",
    "旅行建议2"
  ]
}

注意：
1. 活动类型包括：景点、餐厅、交通、购物、休闲
2. 每天安排 3-5 个活动
3. 考虑用户偏好和是否带孩子
4. 预算分配要合理
5. 地址要详细准确
6. 时间安排要考虑交通和游览时间`)

	return b.String()
}

// BuildOptimizePrompt renders the optimization prompt, embedding the full
// current itinerary and budget with explicit instructions to preserve the
// total budget.
func BuildOptimizePrompt(plan *domain.TravelPlan) string {
	req := plan.Request

	itineraryJSON, err := json.MarshalIndent(plan.Itinerary, "", "  ")
	if err != nil {
		itineraryJSON = []byte("[]")
	}
	budgetJSON, err := json.MarshalIndent(plan.Budget, "", "  ")
	if err != nil {
		budgetJSON = []byte("{}")
	}

	summary := plan.Summary
	if summary == "" {
		summary = "暂无概要"
	}

	childrenNote := ""
	if req.WithChildren {
		childrenNote = "（带孩子同行）\n"
	}

	return fmt.Sprintf(`作为专业的旅行规划师，请优化以下旅行计划。

【原始行程信息】
目的地：%s
旅行天数：%d天
总预算：¥%.0f
人数：%d人
偏好：%s
%s
【原始行程概要】
%s

【原始行程安排】
%s

【原始预算分配】
%s

【优化要求】
请从以下几个方面进行全面优化：

1. **路线优化**：调整景点顺序，减少往返路程，优化交通路线
2. **时间优化**：合理安排游览时间，避免行程过紧或过松
3. **预算优化**：在总预算不变的前提下，优化各项开支分配，提高性价比
4. **体验优化**：增加或替换更符合用户偏好的景点和活动
5. **实用建议**：补充更详细的游玩技巧和注意事项

【返回格式要求】
请严格按照以下 JSON 格式返回优化后的完整数据：

{
  "title": "行程标题（可以优化得更吸引人）",
  "summary": "【必填】优化后的行程概要说明（200-300字，突出优化亮点和行程特色）",
  "itinerary": [
    {
      "day": 1,
      "date": "YYYY-MM-DD",
      "theme": "当日主题",
      "activities": [
        {
          "time": "HH:MM",
          "type": "景点/餐厅/交通/购物/休闲",
          "name": "名称",
          "description": "详细描述（50-100字）",
          "address": "详细地址",
          "estimatedCost": 数字,
          "duration": 分钟数,
          "tips": "游玩建议和注意事项"
        }
      ],
      "accommodation": {
        "name": "酒店名称",
        "type": "酒店类型",
        "address": "酒店地址",
        "price": 价格
      }
    }
  ],
  "budget": {
    "transportation": 交通费用,
    "accommodation": 住宿费用,
    "food": 餐饮费用,
    "activities": 门票和活动费用,
    "shopping": 购物预算,
    "other": 其他费用,
    "total": 总计（必须等于原始预算）
  },
  "tips": [
    "【必填】优化后的实用建议1（具体明确）",
    "【必填】优化后的实用建议2（具体明确）",
    "至少提供 5-8 条建议"
  ]
}

【重要提醒】
- summary 字段是必填项，必须提供详细的行程概要说明
- tips 必须提供 5-8 条实用的旅行建议
- 所有活动的 description 和 tips 都要详细具体
- 总预算必须保持不变（¥%.0f）
- 确保返回完整的 JSON 数据，不要省略任何字段`,
		req.Destination, req.Days, req.Budget, req.Travelers,
		strings.Join(req.Preferences, "、"), childrenNote,
		summary, itineraryJSON, budgetJSON, req.Budget)
}
