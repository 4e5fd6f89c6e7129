// Command sipcheck is a small debug client: it dials a running acsd,
// drives an SC Status / Login / Patron Status Request sequence, and
// prints every response frame, for smoke-testing a deployment without
// a real self-service terminal.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"time"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:6001", "acsd SIP2 listen address")
	uid := flag.String("uid", "term1", "login user id")
	password := flag.String("password", "term1", "login password")
	patron := flag.String("patron", "1234", "patron barcode to query")
	flag.Parse()

	conn, err := net.DialTimeout("tcp", *addr, 5*time.Second)
	if err != nil {
		fmt.Printf("dial failed: %v\n", err)
		return
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)

	scStatus := "9900102.00\r"
	send(conn, reader, "SC Status", scStatus)

	login := fmt.Sprintf("9300CN%s|CO%s|CPMAIN|\r", *uid, *password)
	send(conn, reader, "Login", login)

	status := fmt.Sprintf("23001%sAOMAIN|AA%s|\r", now(), *patron)
	send(conn, reader, "Patron Status", status)
}

func now() string {
	return time.Now().Format("20060102    150405")
}

func send(conn net.Conn, reader *bufio.Reader, label, frame string) {
	fmt.Printf("--> %s: %q\n", label, frame)
	if _, err := conn.Write([]byte(frame)); err != nil {
		fmt.Printf("write failed: %v\n", err)
		return
	}
	resp, err := reader.ReadString('\r')
	if err != nil {
		fmt.Printf("read failed: %v\n", err)
		return
	}
	fmt.Printf("<-- %s: %q\n\n", label, resp)
}
