package session

import "time"

// ticker фоновый источник тиков. Единственная его задача — периодически
// отправлять сигнал в канал; общего изменяемого состояния у него нет.
type ticker struct {
	stop chan struct{}
	done chan struct{}
}

// startTicker запускает горутину, отправляющую тик в канал c каждые interval.
// Отправка неблокирующая: если потребитель не успевает, тик пропускается.
func startTicker(interval time.Duration, c chan<- struct{}) *ticker {
	t := &ticker{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(t.done)

		clock := time.NewTicker(interval)
		defer clock.Stop()

		for {
			select {
			case <-t.stop:
				return
			case <-clock.C:
				select {
				case c <- struct{}{}:
				default:
				}
			}
		}
	}()

	return t
}

// Stop сигнализирует горутине остановиться и дожидается ее выхода.
// Выход гарантирован не позже чем через один интервал.
func (t *ticker) Stop() {
	close(t.stop)
	<-t.done
}
