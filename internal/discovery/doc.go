// Package discovery advertises and finds blescan servers with mDNS.
//
// A running blescan-server registers itself as a "_blescan._tcp" service so
// clients on the same network segment can find it without knowing its
// address. The TXT record carries the path of the device list and the
// server version.
//
// # Advertising
//
//	adv, err := discovery.Advertise("kitchen-pi", 3000, "v1.2.0")
//	if err != nil {
//	    return err
//	}
//	defer adv.Shutdown()
//
// # Browsing
//
//	services, err := discovery.ScanForServers(3 * time.Second)
//	for _, s := range services {
//	    fmt.Println(s.DevicesURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Firewall must allow mDNS (UDP port 5353)
package discovery
