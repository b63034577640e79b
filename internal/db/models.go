package db

import "github.com/seung7-arch/als-deli-website/internal/models"

type Order = models.Order
type OrderStatus = models.OrderStatus
type LineItem = models.LineItem

const (
	StatusAwaitingPayment = models.StatusAwaitingPayment
	StatusPaid            = models.StatusPaid
	StatusCashierPending  = models.StatusCashierPending
	StatusRefunded        = models.StatusRefunded
)
