// Package console is the out-of-band operator command loop: line-oriented
// commands on stdin for inspecting books and trades and for shutting the
// server down with a final flush. Reports print straight to the terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ecamli/borsa/pkg/book"
	"github.com/ecamli/borsa/pkg/engine"
	"github.com/ecamli/borsa/pkg/proto"
	"github.com/ecamli/borsa/pkg/server"
	"github.com/ecamli/borsa/pkg/storage"
)

const recentOrderCount = 20

type Console struct {
	engine   *engine.Engine
	registry *server.Registry
	archive  *storage.Archive
	log      *zap.SugaredLogger
	shutdown context.CancelFunc

	in  io.Reader
	out io.Writer
}

func New(eng *engine.Engine, reg *server.Registry, archive *storage.Archive, shutdown context.CancelFunc, log *zap.SugaredLogger) *Console {
	return &Console{
		engine:   eng,
		registry: reg,
		archive:  archive,
		log:      log,
		shutdown: shutdown,
		in:       os.Stdin,
		out:      os.Stdout,
	}
}

// Run reads commands until stdin closes or cikis is issued. The command
// names are the original operator vocabulary and are part of the observable
// surface.
func (c *Console) Run(ctx context.Context) {
	sc := bufio.NewScanner(c.in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch strings.TrimSpace(sc.Text()) {
		case "":
		case "emirler":
			c.showRecentOrders()
		case "ozet":
			c.showDailySummary()
		case "aktif":
			fmt.Fprintf(c.out, "\nAktif client sayısı: %d\n", c.registry.Count())
		case "temizle":
			cmd := exec.Command("clear")
			cmd.Stdout = c.out
			_ = cmd.Run()
		case "bekleyen":
			c.showBooks()
		case "islemler":
			c.showTrades()
		case "yardim":
			c.showHelp()
		case "cikis":
			fmt.Fprintln(c.out, "\nServer kapatılıyor...")
			c.engine.Flush()
			c.shutdown()
			return
		default:
			fmt.Fprintln(c.out, "Bilinmeyen komut. 'yardim' yazarak komutları görebilirsiniz.")
		}
	}
}

func (c *Console) showHelp() {
	fmt.Fprint(c.out, `
=== SERVER KOMUTLARI ===
  emirler  - Son emirleri göster
  ozet     - Günlük özet raporu
  aktif    - Aktif client sayısı
  temizle  - Ekranı temizle
  bekleyen - Order book durumu (alış/satış emirleri)
  islemler - Günün gerçekleşen işlemlerini göster
  cikis    - Server'ı kapat
========================
`)
}

// showBooks prints the top of every book from one consistent dump; it never
// races an in-flight match because the dump is taken under the registry lock.
func (c *Console) showBooks() {
	orders := c.engine.Dump()

	fmt.Fprintln(c.out, "\n=== ORDER BOOK DURUMU ===")
	type sideLines struct{ bids, asks []string }
	perSymbol := make(map[string]*sideLines)
	var symbols []string

	for i := range orders {
		o := &orders[i]
		s, ok := perSymbol[o.Symbol]
		if !ok {
			s = &sideLines{}
			perSymbol[o.Symbol] = s
			symbols = append(symbols, o.Symbol)
		}
		line := fmt.Sprintf("    %s TL x %d adet (Client#%d)", proto.FormatPrice(o.Price), o.Remaining, o.ClientID)
		if o.Side == book.Buy {
			s.bids = append(s.bids, line)
		} else {
			s.asks = append(s.asks, line)
		}
	}

	for _, sym := range symbols {
		s := perSymbol[sym]
		fmt.Fprintf(c.out, "\n%s:\n", sym)
		fmt.Fprintln(c.out, "  ALIŞ EMİRLERİ:")
		for i, l := range s.bids {
			if i == 5 {
				break
			}
			fmt.Fprintln(c.out, l)
		}
		fmt.Fprintln(c.out, "  SATIŞ EMİRLERİ:")
		for i, l := range s.asks {
			if i == 5 {
				break
			}
			fmt.Fprintln(c.out, l)
		}
	}
	fmt.Fprintln(c.out, strings.Repeat("-", 50))
}

func (c *Console) showRecentOrders() {
	if c.archive == nil {
		fmt.Fprintln(c.out, "\nEmir arşivi kapalı.")
		return
	}
	recs, err := c.archive.RecentOrders(recentOrderCount)
	if err != nil {
		c.log.Warnw("recent_orders_query_failed", "err", err)
		return
	}

	fmt.Fprintln(c.out, "\n=== SON EMİRLER ===")
	fmt.Fprintln(c.out, strings.Repeat("-", 80))
	// Newest-first from the archive; print oldest first like the log view.
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		fmt.Fprintf(c.out, "%s Client#%d %s %s %s TL x %d adet\n",
			r.Time.Format("2006-01-02 15:04:05"), r.ClientID, r.Symbol,
			proto.FormatSide(r.Side), proto.FormatPrice(r.Price), r.Quantity)
	}
	fmt.Fprintln(c.out, strings.Repeat("-", 80))
	fmt.Fprintf(c.out, "Toplam %d emir gösteriliyor.\n", len(recs))
}

func (c *Console) showDailySummary() {
	if c.archive == nil {
		fmt.Fprintln(c.out, "\nEmir arşivi kapalı.")
		return
	}
	from, to := today()
	recs, err := c.archive.OrdersBetween(from, to)
	if err != nil {
		c.log.Warnw("daily_summary_query_failed", "err", err)
		return
	}

	var buys, sells int
	var volume int64 // kurus * lots
	perSymbol := make(map[string]int)
	for _, r := range recs {
		if r.Side == book.Buy {
			buys++
		} else {
			sells++
		}
		perSymbol[r.Symbol]++
		volume += r.Price * r.Quantity
	}

	fmt.Fprintf(c.out, "\n=== GÜNLÜK ÖZET (%s) ===\n", from.Format("2006-01-02"))
	fmt.Fprintln(c.out, strings.Repeat("-", 50))
	fmt.Fprintf(c.out, "Toplam Emir: %d\n", len(recs))
	fmt.Fprintf(c.out, "Alış Emirleri: %d\n", buys)
	fmt.Fprintf(c.out, "Satış Emirleri: %d\n", sells)
	fmt.Fprintf(c.out, "Toplam İşlem Hacmi: %s TL\n", proto.FormatPrice(volume))
	fmt.Fprintln(c.out, "\nHisse Bazında Dağılım:")
	for sym, n := range perSymbol {
		fmt.Fprintf(c.out, "  %s: %d emir\n", sym, n)
	}
	fmt.Fprintln(c.out, strings.Repeat("-", 50))
}

func (c *Console) showTrades() {
	if c.archive == nil {
		fmt.Fprintln(c.out, "\nİşlem arşivi kapalı.")
		return
	}
	from, to := today()
	trades, err := c.archive.TradesBetween(from, to)
	if err != nil {
		c.log.Warnw("trades_query_failed", "err", err)
		return
	}

	fmt.Fprintln(c.out, "\n=== GÜNÜN İŞLEMLERİ ===")
	fmt.Fprintln(c.out, strings.Repeat("-", 80))
	var volume int64
	for _, t := range trades {
		volume += t.Price * t.Quantity
		fmt.Fprintf(c.out, "%s %s %d adet @ %s TL (Alıcı: Client#%d, Satıcı: Client#%d)\n",
			t.Time.Format("15:04:05"), t.Symbol, t.Quantity,
			proto.FormatPrice(t.Price), t.BuyerID, t.SellerID)
	}
	fmt.Fprintln(c.out, strings.Repeat("-", 80))
	fmt.Fprintf(c.out, "Toplam İşlem: %d\n", len(trades))
	fmt.Fprintf(c.out, "Toplam Hacim: %s TL\n", proto.FormatPrice(volume))
}

func today() (time.Time, time.Time) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 0, 1)
}
