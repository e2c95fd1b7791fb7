package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"bookshop-assistant/internal/card"
	"bookshop-assistant/internal/confirm"
	"bookshop-assistant/internal/orderapi"
	"bookshop-assistant/internal/session"
)

// Terminal chat client for the bookshop service. It renders assistant
// replies, turns embedded confirmation blocks into an interactive
// order card, and drives the confirm/cancel/retry flow.
func main() {
	settingsPath := os.Getenv("SETTINGS_PATH")
	if settingsPath == "" {
		settingsPath = session.DefaultSettingsPath()
	}
	settings, err := session.LoadSettings(settingsPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	sess := session.New(settings)
	if u := os.Getenv("BOOKSHOP_URL"); u != "" {
		sess.SetBaseURL(u)
	}

	fmt.Println("Trợ lý nhà sách. Gõ tin nhắn, /url <địa chỉ> để đổi máy chủ, /quit để thoát.")
	if sess.BaseURL() == "" {
		fmt.Println("Chưa cấu hình máy chủ. Dùng /url <địa chỉ> trước khi chat.")
	}

	ctx := context.Background()
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case strings.HasPrefix(line, "/url "):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "/url "))
			if err := settings.SaveBaseURL(raw); err != nil {
				fmt.Printf("Địa chỉ không hợp lệ: %v\n", err)
				continue
			}
			sess.SetBaseURL(settings.BaseURL())
			fmt.Println("Đã lưu địa chỉ máy chủ.")
		default:
			sendChat(ctx, sess, in, line)
		}
	}
}

func sendChat(ctx context.Context, sess *session.Session, in *bufio.Scanner, text string) {
	if sess.BaseURL() == "" {
		fmt.Println("Chưa cấu hình máy chủ. Dùng /url <địa chỉ>.")
		return
	}
	if !sess.BeginSend() {
		fmt.Println("Đang chờ phản hồi, vui lòng đợi.")
		return
	}
	defer sess.EndSend()

	client := orderapi.NewClient(sess.BaseURL(), orderapi.DefaultTimeout)
	reply, err := client.Chat(ctx, text, sess.UserID())
	if err != nil {
		fmt.Printf("Không gửi được tin nhắn: %v\n", err)
		return
	}

	payload, rendered, found := confirm.ExtractBlock(reply.Response)
	fmt.Println(strings.ReplaceAll(rendered, confirm.Placeholder, ""))
	if !found {
		return
	}

	rec := confirm.ParseRecord(payload)
	if rec.Empty() {
		fmt.Println("Không thể xử lý thông tin đơn hàng. Vui lòng thử lại.")
		return
	}
	runCard(ctx, card.New(rec), client, in)
}

func runCard(ctx context.Context, c *card.Card, svc card.Confirmer, in *bufio.Scanner) {
	rec := c.Record()
	fmt.Println("--- Xác nhận đơn hàng ---")
	fmt.Printf("Sách: %s (x%s)\n", rec.BookTitle, rec.Quantity)
	fmt.Printf("Người nhận: %s, %s\n", rec.CustomerName, rec.Phone)
	fmt.Printf("Địa chỉ: %s\n", rec.Address)

	for {
		prompt := "Xác nhận đặt hàng? [y/n] "
		if c.State() == card.StateFailed {
			prompt = "Thử lại? [y/n] "
		}
		fmt.Print(prompt)
		if !in.Scan() {
			return
		}
		answer := strings.ToLower(strings.TrimSpace(in.Text()))
		if answer != "y" {
			if err := c.Cancel(); err == nil {
				fmt.Println("Đã hủy đơn hàng.")
			}
			return
		}

		err := c.Confirm(ctx, svc)
		if err == nil {
			res := c.Result()
			fmt.Printf("%s Mã đơn hàng: %d, tổng tiền: %.0f₫, giao hàng: %s\n",
				res.Message, res.OrderID, res.TotalAmount, res.Delivery)
			return
		}
		fmt.Printf("Đặt hàng thất bại: %v\n", err)
		if c.State() != card.StateFailed {
			return
		}
	}
}
