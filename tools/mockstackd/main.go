// mockstackd runs the Openstack control-plane double as a standalone
// HTTP server, for test suites that talk to it out of process.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/juju/gnuflag"
	"github.com/juju/loggo"

	"github.com/go-mockstack/mockstack/logging"
	"github.com/go-mockstack/mockstack/openstackservice"
)

var (
	addrFlag      = gnuflag.String("addr", "localhost:8080", "address to listen on")
	baseHostFlag  = gnuflag.String("base-host", "", "host substituted into catalog URL templates (defaults to the listen address host)")
	logConfigFlag = gnuflag.String("log-config", "", "loggo configuration, e.g. mockstack=DEBUG")
)

func run() error {
	if *logConfigFlag != "" {
		if err := loggo.ConfigureLoggers(*logConfigFlag); err != nil {
			return err
		}
	}
	baseHost := *baseHostFlag
	if baseHost == "" {
		baseHost = *addrFlag
	}
	openstack := openstackservice.New(baseHost)
	mux := http.NewServeMux()
	openstack.SetupHTTP(mux)
	handler := logging.Handler(mux, logging.Logger{Logger: loggo.GetLogger("mockstack.http")})
	// Printed so harness scripts can pick the token up.
	fmt.Printf("service admin token: %s\n", openstack.Identity.ServiceAdminToken())
	fmt.Printf("listening on %s\n", *addrFlag)
	return http.ListenAndServe(*addrFlag, handler)
}

func main() {
	gnuflag.Parse(true)
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mockstackd: %v\n", err)
		os.Exit(1)
	}
}
