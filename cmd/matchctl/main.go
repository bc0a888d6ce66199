// Command matchctl is a minimal CLI client for the wire protocol.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vantara-markets/matchcore/internal/order"
	"github.com/vantara-markets/matchcore/internal/wire"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "address of the matching engine")
	owner := flag.String("owner", "", "owner username (required for -action=place)")
	action := flag.String("action", "place", "action: place | cancel | snapshot")

	symbol := flag.String("symbol", "AAPL", "symbol")
	sideStr := flag.String("side", "buy", "buy | sell")
	kindStr := flag.String("kind", "limit", "limit | market")
	price := flag.String("price", "100.00", "limit price (decimal string)")
	amount := flag.String("amount", "10", "amount (decimal string)")
	orderID := flag.String("id", "", "order id, for cancel")

	flag.Parse()

	if strings.EqualFold(*action, "place") && *owner == "" {
		fmt.Println("Error: -owner is required for -action=place.")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *serverAddr, err)
	}
	defer conn.Close()

	side := order.Buy
	if strings.EqualFold(*sideStr, "sell") {
		side = order.Sell
	}
	kind := order.Limit
	if strings.EqualFold(*kindStr, "market") {
		kind = order.Market
	}

	switch strings.ToLower(*action) {
	case "place":
		amt, err := decimal.NewFromString(*amount)
		if err != nil {
			log.Fatalf("invalid amount: %v", err)
		}
		var p decimal.Decimal
		if kind == order.Limit {
			p, err = decimal.NewFromString(*price)
			if err != nil {
				log.Fatalf("invalid price: %v", err)
			}
		}
		msg := wire.EncodeNewOrder(wire.NewOrderRequest{
			Symbol: *symbol,
			Side:   side,
			Kind:   kind,
			Price:  p,
			Amount: amt,
			Owner:  *owner,
		})
		if _, err := conn.Write(msg); err != nil {
			log.Fatalf("send failed: %v", err)
		}
		fmt.Printf("-> placed %s %s %s %s @ %s\n", strings.ToUpper(*sideStr), *symbol, amt, strings.ToUpper(*kindStr), p)

	case "cancel":
		if *orderID == "" {
			log.Fatal("Error: -id is required for cancel")
		}
		msg := wire.EncodeCancelOrder(wire.CancelOrderRequest{OrderID: *orderID})
		if _, err := conn.Write(msg); err != nil {
			log.Fatalf("send failed: %v", err)
		}
		fmt.Printf("-> cancel requested for %s\n", *orderID)

	case "snapshot":
		msg := wire.EncodeSnapshotRequest(*symbol)
		if _, err := conn.Write(msg); err != nil {
			log.Fatalf("send failed: %v", err)
		}
		fmt.Printf("-> snapshot requested for %s\n", *symbol)

	default:
		log.Fatalf("unknown action %q", *action)
	}

	// Give the server a moment to write back a report before exiting.
	buf := make([]byte, 4*1024)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err == nil && n > 0 {
		fmt.Printf("<- %d bytes of report received\n", n)
	}
}
