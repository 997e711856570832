package usecase

import (
	"fmt"
	"strings"

	"github.com/spaceman8888/mcdonald-order-app/internal/domain"
)

// buildSystemPrompt composes the system instruction for one turn: the current
// cart with derived totals, the full available menu as id/name/price lines,
// the literal directive grammar the model must emit, and the behavior rules.
// It is a pure function of its inputs and is rebuilt on every turn; the
// composed string is never cached across turns.
func buildSystemPrompt(cart []domain.CartLine, catalog domain.CatalogSnapshot) string {
	return strings.Join([]string{
		"당신은 맥도날드 주문을 돕는 AI 주문 도우미입니다. 고객이 메뉴를 선택하고 주문할 수 있도록 친절하게 안내해 주세요.",
		"",
		"현재 고객의 장바구니:",
		formatCartLines(cart),
		"",
		"당신의 역할:",
		behaviorRules(),
		"",
		"메뉴와 ID 목록:",
		formatMenuListing(catalog),
		"",
		directiveContract(),
		"",
		"일반적인 대화는 그냥 자연스럽게 응답하세요.",
	}, "\n")
}

func behaviorRules() string {
	return strings.Join([]string{
		"1. 고객의 메뉴 질문에 답변하기 (메뉴 추천, 메뉴 설명 등)",
		"2. 고객이 원하는 메뉴를 장바구니에 추가하기",
		"3. 고객이 요청하면 메뉴 수량 변경하기",
		"4. 고객이 요청하면 장바구니에서 메뉴 제거하기",
		"5. 주문을 완료할 준비가 되었는지 확인하기",
	}, "\n")
}

// directiveContract is the literal output grammar conveyed to the model. The
// tokens may appear anywhere inside a natural-language response.
func directiveContract() string {
	return strings.Join([]string{
		"고객이 메뉴를 주문하려 할 때는 다음 형식으로 응답하고 추가되었다는 메시지를 보내줘:",
		"MENU_ADD|메뉴ID|수량|옵션ID1,옵션ID2,...",
		"",
		"고객이 수량을 변경하려 할 때는 다음 형식으로 응답하고 수량이 변경되었다는 메시지를 보내줘:",
		"MENU_UPDATE|메뉴ID|수량",
		"",
		"예시:",
		"  - 콜라 주문: MENU_ADD|10|1",
		"  - 빅맥 2개 주문: MENU_ADD|1|2",
		"",
		"고객이 메뉴를 제거하려 할 때는 다음 형식으로 응답하고 제거되었다는 메시지를 보내줘:",
		"MENU_REMOVE|메뉴ID",
		"",
		"MENU_ADD, MENU_UPDATE, MENU_REMOVE 형식이 아니면 대화중인 메뉴에 따라 아래 형식으로 응답해줘:",
		"SHOW_BURGER",
		"SHOW_SIDE",
		"SHOW_DRINK",
		"SHOW_DESSERT",
		"",
		"주문을 완료하겠다는 답변이 있으면 아래 형식으로 응답해주고 끝인사 없이 총 주문 금액이 얼마인지 말해줘:",
		"ORDER_COMPLETE",
	}, "\n")
}

// formatCartLines renders the cart for the prompt with per-line quantities,
// option adjustments and the derived grand total.
func formatCartLines(cart []domain.CartLine) string {
	if len(cart) == 0 {
		return "장바구니가 비어 있습니다."
	}

	var b strings.Builder
	for i, line := range cart {
		fmt.Fprintf(&b, "%d. %s - %d개 (%s원)\n", i+1, line.Name, line.Quantity, formatWon(line.EffectiveUnitPrice()))
		for _, opt := range line.Options {
			sign := ""
			if opt.PriceAdjustment > 0 {
				sign = "+"
			}
			fmt.Fprintf(&b, "   - %s (%s%s원)\n", opt.Name, sign, formatWon(opt.PriceAdjustment))
		}
	}
	fmt.Fprintf(&b, "\n총 금액: %s원", formatWon(domain.CartTotal(cart)))
	return b.String()
}

// formatMenuListing renders every available item grouped under its category.
func formatMenuListing(catalog domain.CatalogSnapshot) string {
	var b strings.Builder
	for _, cat := range catalog.Categories {
		items := catalog.Items[cat.ID]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "[%s]\n", cat.Name)
		for _, item := range items {
			if !item.Available {
				continue
			}
			fmt.Fprintf(&b, "  - %s: %d (%s원)\n", item.Name, item.ID, formatWon(item.Price))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatSearchResults renders search hits in the shape the model is told to
// expect when menu search output is relayed into the conversation.
func formatSearchResults(items []domain.CatalogItem) string {
	if len(items) == 0 {
		return "검색 결과가 없습니다."
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		line := fmt.Sprintf("ID: %d, 이름: %s, 가격: %s원", item.ID, item.Name, formatWon(item.Price))
		if item.Calories > 0 {
			line += fmt.Sprintf(", 칼로리: %dkcal", item.Calories)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// formatWon groups digits by thousands, e.g. 5500 -> "5,500".
func formatWon(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
