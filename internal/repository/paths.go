package repository

import "fmt"

// Collection paths mirror the document-store layout:
// sellers/{id}, sellers/{id}/products/{id}, sellers/{id}/orders/{id},
// kaspiOrders/{id}, deliveries/{id}, deliveryHistory/{id}/...,
// notifications/{id}, pickupTasks/{id}.

func sellerPath(sellerID string) string {
	return "sellers/" + sellerID
}

func sellersPrefix() string {
	return "sellers/"
}

func productPath(sellerID, productID string) string {
	return fmt.Sprintf("sellers/%s/products/%s", sellerID, productID)
}

func productsPrefix(sellerID string) string {
	return fmt.Sprintf("sellers/%s/products/", sellerID)
}

func orderPath(sellerID, orderKey string) string {
	return fmt.Sprintf("sellers/%s/orders/%s", sellerID, orderKey)
}

func ordersPrefix(sellerID string) string {
	return fmt.Sprintf("sellers/%s/orders/", sellerID)
}

func kaspiOrderPath(kaspiOrderID string) string {
	return "kaspiOrders/" + kaspiOrderID
}

func deliveryPath(deliveryID string) string {
	return "deliveries/" + deliveryID
}

func deliveriesPrefix() string {
	return "deliveries/"
}

// historyPath keys entries by zero-padded creation nanos so that a
// prefix List returns them in chronological order
func historyPath(deliveryID string, createdNanos int64, entryID string) string {
	return fmt.Sprintf("deliveryHistory/%s/%020d-%s", deliveryID, createdNanos, entryID)
}

func historyPrefix(deliveryID string) string {
	return fmt.Sprintf("deliveryHistory/%s/", deliveryID)
}

func notificationPath(notificationID string) string {
	return "notifications/" + notificationID
}

func pickupTaskPath(taskID string) string {
	return "pickupTasks/" + taskID
}

func pickupTasksPrefix() string {
	return "pickupTasks/"
}
