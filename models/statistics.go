package models

// Daily is the number of trading days in a year, every simulated step is one trading day
const Daily = 252
