package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name BuildIDResolver --dir ../usecase --output usecase --outpkg usecasemock --filename build_id_resolver_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name TeamGamesFetcher --dir ../usecase --output usecase --outpkg usecasemock --filename team_games_fetcher_mock.go
