// Interactive order-entry client: loads the stock list, validates price
// against each stock's tick grid, and speaks the pipe-delimited protocol.
// Server messages (acceptances and trade notices) print as they arrive.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ecamli/borsa/pkg/book"
	"github.com/ecamli/borsa/pkg/proto"
)

type stock struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
	TickSize  decimal.Decimal `json:"tick_size"`
}

func main() {
	addr := flag.String("addr", "127.0.0.1:5001", "server address")
	stocksPath := flag.String("stocks", "stocks.json", "stock definition file")
	flag.Parse()

	stocks, err := loadStocks(*stocksPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hisse listesi yüklenemedi: %v\n", err)
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sunucuya bağlanılamadı: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	// Server messages arrive asynchronously (trades in particular).
	go func() {
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			fmt.Printf("<< %s\n", sc.Text())
		}
		fmt.Println("Sunucu bağlantısı kapandı.")
		os.Exit(0)
	}()

	in := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("\n1) Emir gönder  2) Hisse listesi  3) Çıkış\nSeçim: ")
		choice, err := in.ReadString('\n')
		if err != nil {
			break
		}
		switch strings.TrimSpace(choice) {
		case "1":
			placeOrder(in, conn, stocks)
		case "2":
			printStocks(stocks)
		case "3":
			fmt.Fprintln(conn, proto.CmdQuit)
			return
		default:
			fmt.Println("Geçersiz seçim!")
		}
	}
}

func loadStocks(path string) ([]stock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var stocks []stock
	if err := json.Unmarshal(data, &stocks); err != nil {
		return nil, err
	}
	return stocks, nil
}

func printStocks(stocks []stock) {
	fmt.Println("\n=== HİSSE LİSTESİ ===")
	fmt.Printf("%-5s %-10s %-25s %12s %12s\n", "No", "Sembol", "İsim", "Fiyat", "Tick")
	fmt.Println(strings.Repeat("-", 70))
	for i, s := range stocks {
		fmt.Printf("%-5d %-10s %-25s %12s %12s\n",
			i+1, s.Symbol, s.Name, s.BasePrice.StringFixed(2), s.TickSize.StringFixed(2))
	}
	fmt.Println(strings.Repeat("-", 70))
}

func placeOrder(in *bufio.Reader, conn net.Conn, stocks []stock) {
	printStocks(stocks)

	idx, ok := readInt(in, fmt.Sprintf("Hisse seçin (1-%d) veya 0 ile iptal: ", len(stocks)))
	if !ok || idx == 0 {
		return
	}
	if idx < 1 || idx > len(stocks) {
		fmt.Println("Geçersiz seçim!")
		return
	}
	st := stocks[idx-1]
	fmt.Printf("\nSeçilen: %s - %s (tick: %s TL)\n", st.Symbol, st.Name, st.TickSize.StringFixed(2))

	var side book.Side
	for {
		fmt.Print("Emir tipi (AL/SAT) veya iptal için 'C': ")
		raw, err := in.ReadString('\n')
		if err != nil {
			return
		}
		switch strings.ToUpper(strings.TrimSpace(raw)) {
		case "C":
			return
		case "AL":
			side = book.Buy
		case "SAT":
			side = book.Sell
		default:
			fmt.Println("Geçersiz emir tipi! Sadece AL veya SAT giriniz.")
			continue
		}
		break
	}

	price, ok := readPrice(in, st)
	if !ok {
		return
	}
	qty, ok := readInt(in, "Adet: ")
	if !ok || qty <= 0 {
		fmt.Println("Adet pozitif bir tam sayı olmalı!")
		return
	}

	fmt.Fprintln(conn, proto.Order(st.Symbol, side, price, int64(qty)))
}

// readPrice keeps asking until the entered price is positive and on the
// stock's tick grid.
func readPrice(in *bufio.Reader, st stock) (int64, bool) {
	for {
		fmt.Print("Fiyat (TL): ")
		raw, err := in.ReadString('\n')
		if err != nil {
			return 0, false
		}
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil || !d.IsPositive() {
			fmt.Println("Geçersiz fiyat!")
			continue
		}
		if !d.Mod(st.TickSize).IsZero() {
			fmt.Printf("Fiyat %s TL tick aralığına uymalı!\n", st.TickSize.StringFixed(2))
			continue
		}
		kurus, err := proto.ParsePrice(d.String())
		if err != nil {
			fmt.Println("Geçersiz fiyat!")
			continue
		}
		return kurus, true
	}
}

func readInt(in *bufio.Reader, prompt string) (int, bool) {
	fmt.Print(prompt)
	raw, err := in.ReadString('\n')
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		fmt.Println("Geçersiz giriş!")
		return 0, false
	}
	return n, true
}
