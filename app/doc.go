/*
Package app contains the ABCI application glue: the message router, the
decorator chain, the commit store with its check and deliver caches, and the
StoreApp and BaseApp implementing abci.Application.

A typical application is assembled as

	router := app.NewRouter()
	cash.RegisterRoutes(router, auth, ctrl)
	identity.RegisterRoutes(router, auth, ctrl, resolver)

	handler := app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		sigs.NewDecorator(),
		batch.NewDecorator(),
		utils.NewActionTagger(),
		utils.NewSavepoint().OnDeliver(),
	).WithHandler(router)
*/
package app
