// Package transports registers every built-in transport with the default
// registry. Import it for side effects when the selection comes from config:
//
//	import _ "github.com/bananabit-dev/dx-use-js-bridge/transport/transports"
package transports

import (
	_ "github.com/bananabit-dev/dx-use-js-bridge/transport/channel"
	_ "github.com/bananabit-dev/dx-use-js-bridge/transport/http"
	iotransport "github.com/bananabit-dev/dx-use-js-bridge/transport/io"
	natstransport "github.com/bananabit-dev/dx-use-js-bridge/transport/nats"
	_ "github.com/bananabit-dev/dx-use-js-bridge/transport/webview"
)

func init() {
	natstransport.Register()
	iotransport.Register()
}
