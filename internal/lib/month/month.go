// Package month содержит календарную арифметику для абонементов: сложение
// месяцев с прижатием к концу месяца, подсчёт целых месяцев и границы месяца.
//
// Все даты абонементов, платежей и посещений хранятся как полночь UTC,
// поэтому функции пакета работают с календарными днями, а не с моментами времени.
package month

import (
	"fmt"
	"time"
)

// DateLayout — формат календарной даты в API и конфигурации.
const DateLayout = "2006-01-02"

// KeyLayout — формат ключа месяца для группировки посещений.
const KeyLayout = "2006-01"

// Day отбрасывает время суток и возвращает полночь UTC той же календарной даты.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату в формате 2006-01-02.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("month.ParseDate: %w", err)
	}
	return t, nil
}

// AddMonths прибавляет n месяцев. Если в целевом месяце нет такого дня,
// результат прижимается к последнему дню месяца (31 января + 1 = 28/29 февраля),
// в отличие от time.AddDate, который переносит остаток в следующий месяц.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Between возвращает количество целых месяцев от from до to.
// Согласовано с AddMonths: Between(t, AddMonths(t, n)) == n.
func Between(from, to time.Time) int {
	n := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	switch {
	case n > 0 && AddMonths(from, n).After(to):
		n--
	case n < 0 && AddMonths(from, n).Before(to):
		n++
	}
	return n
}

// DaysBetween возвращает количество календарных дней от from до to.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// FirstDay возвращает первый день месяца, в который попадает t.
func FirstDay(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay возвращает последний день месяца, в который попадает t.
func LastDay(t time.Time) time.Time {
	first := FirstDay(t)
	return first.AddDate(0, 0, daysIn(first)-1)
}

// Key возвращает ключ месяца вида 2025-01.
func Key(t time.Time) string {
	return t.Format(KeyLayout)
}

func daysIn(first time.Time) int {
	return time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
