// test/mocks/mocks.go

// Package mocks contains generated mocks for the application's interfaces.
// To regenerate mocks, run `make mocks` from the root directory.
package mocks

//go:generate mockgen -source=../../internal/core/ports/product_repository.go -destination=product_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/sale_repository.go -destination=sale_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/batch_repository.go -destination=batch_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/scan_repository.go -destination=scan_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/cache.go -destination=cache_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/catalog_service.go -destination=catalog_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/sales_service.go -destination=sales_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/inventory_service.go -destination=inventory_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/services/sales.go -destination=tx_runner_mock.go -package=mocks TxRunner,TaskEnqueuer
