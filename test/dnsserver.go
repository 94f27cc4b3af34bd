// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package test

import (
	"encoding/hex"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"

	gi "github.com/onsi/ginkgo/v2"
	g "github.com/onsi/gomega"
	s "github.com/thediveo/success"
)

// DNSServer is an in-process UDP DNS server on the loopback interface for
// use as a test harness.
type DNSServer struct {
	Addr   netip.Addr // always 127.0.0.1
	Port   uint16     // ephemeral port the server listens on
	server *dns.Server
}

// NewDNSServer starts a new DNS server answering queries using the specified
// handler function. The server is automatically shut down at the end of the
// current spec.
func NewDNSServer(handler dns.HandlerFunc) *DNSServer {
	gi.GinkgoHelper()

	pc := s.Successful(net.ListenPacket("udp", "127.0.0.1:0"))
	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		Handler:           handler,
		NotifyStartedFunc: func() { close(started) },
	}
	go func() {
		_ = srv.ActivateAndServe()
	}()
	g.Eventually(started).WithTimeout(2 * time.Second).Should(g.BeClosed())
	gi.DeferCleanup(func() {
		_ = srv.Shutdown()
	})
	return &DNSServer{
		Addr:   netip.MustParseAddr("127.0.0.1"),
		Port:   uint16(pc.LocalAddr().(*net.UDPAddr).Port),
		server: srv,
	}
}

// Answering returns a handler answering A queries with the specified
// addresses.
func Answering(addrs ...string) dns.HandlerFunc {
	return func(w dns.ResponseWriter, req *dns.Msg) {
		resp := new(dns.Msg)
		resp.SetReply(req)
		resp.RecursionAvailable = true
		if req.Question[0].Qtype == dns.TypeA {
			for _, addr := range addrs {
				resp.Answer = append(resp.Answer, &dns.A{
					Hdr: dns.RR_Header{
						Name:   req.Question[0].Name,
						Rrtype: dns.TypeA,
						Class:  dns.ClassINET,
						Ttl:    300,
					},
					A: net.ParseIP(addr),
				})
			}
		}
		_ = w.WriteMsg(resp)
	}
}

// Refusing returns a handler refusing all queries.
func Refusing() dns.HandlerFunc {
	return func(w dns.ResponseWriter, req *dns.Msg) {
		resp := new(dns.Msg)
		resp.SetRcode(req, dns.RcodeRefused)
		_ = w.WriteMsg(resp)
	}
}

// Silent returns a handler that never answers.
func Silent() dns.HandlerFunc {
	return func(w dns.ResponseWriter, req *dns.Msg) {}
}

// Identifying returns a handler answering A queries with a fixed address,
// adding an NSID option when asked for, as well as answering CHAOS TXT queries
// for id.server and version.bind with ident and version. Empty values are left
// out.
func Identifying(nsid, ident, version string) dns.HandlerFunc {
	return func(w dns.ResponseWriter, req *dns.Msg) {
		q := req.Question[0]
		resp := new(dns.Msg)
		resp.SetReply(req)
		if q.Qclass != dns.ClassCHAOS {
			resp.Answer = append(resp.Answer, &dns.A{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
				A:   net.ParseIP("192.0.2.1"),
			})
			if opt := req.IsEdns0(); opt != nil && nsid != "" {
				resp.SetEdns0(4096, false)
				edns := resp.IsEdns0()
				edns.Option = append(edns.Option, &dns.EDNS0_NSID{
					Code: dns.EDNS0NSID,
					Nsid: hex.EncodeToString([]byte(nsid)),
				})
			}
			_ = w.WriteMsg(resp)
			return
		}
		var txt string
		switch q.Name {
		case "id.server.":
			txt = ident
		case "version.bind.":
			txt = version
		}
		if txt == "" {
			resp.Rcode = dns.RcodeRefused
		} else {
			resp.Answer = append(resp.Answer, &dns.TXT{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeTXT, Class: dns.ClassCHAOS},
				Txt: []string{txt},
			})
		}
		_ = w.WriteMsg(resp)
	}
}
