package contracts

import "github.com/julienschmidt/httprouter"

// Handler mounts a domain's routes on the application router.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
