// Package storev1 описывает gRPC-контракт store.v1.StoreService.
//
// Сообщения передаются в JSON через кодек с content-subtype "json":
// клиенты из этого пакета выставляют его сами, остальным нужно передать
// заголовок content-type application/grpc+json.
package storev1
